package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/suggest"
)

type viewState int

const (
	monthView viewState = iota
	dayView
	addView
	freeView
)

const suggestTimeout = 30 * time.Second

type Options struct {
	MinFreeMinutes int
	SummaryEvents  int
	SuggestLimit   int
	Location       *suggest.Location
}

type suggestionsMsg struct {
	date        string
	slot        model.FreeSlot
	suggestions []model.Suggestion
}

// App is the interactive planner: month grid, day detail, add form and
// free slots with suggestions.
type App struct {
	planner *app.Planner
	opts    Options
	state   app.State
	view    viewState

	dayCursor int
	form      formModel
	free      freeModel
	spinner   spinner.Model

	status string
	errMsg string
	today  time.Time
	width  int
}

func NewApp(planner *app.Planner, state app.State, opts Options) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	if opts.SummaryEvents <= 0 {
		opts.SummaryEvents = 2
	}

	return &App{
		planner: planner,
		opts:    opts,
		state:   state,
		view:    monthView,
		spinner: s,
		today:   time.Now(),
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

// State returns the current selection, e.g. to remember it on exit.
func (a *App) State() app.State {
	return a.state
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		// any key clears the previous message
		if a.view != addView {
			a.status, a.errMsg = "", ""
		}
	case suggestionsMsg:
		a.free.setSuggestions(msg)
		return a, nil
	case spinner.TickMsg:
		if !a.free.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	switch a.view {
	case monthView:
		return a.updateMonth(msg)
	case dayView:
		return a.updateDay(msg)
	case addView:
		return a.updateAdd(msg)
	case freeView:
		return a.updateFree(msg)
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.view {
	case monthView:
		body = a.monthView()
	case dayView:
		body = a.dayView()
	case addView:
		body = a.form.View(a.state.Selected)
	case freeView:
		body = a.free.View(a.state.Selected, a.spinner.View())
	}
	return body + "\n" + a.statusLine()
}

func (a *App) statusLine() string {
	switch {
	case a.errMsg != "":
		return errorStyle.Render("Error: ") + a.errMsg
	case a.status != "":
		return successStyle.Render(a.status)
	}
	return ""
}

func (a *App) selectedKey() string {
	return a.state.SelectedKey()
}

func (a *App) openDay() {
	a.view = dayView
	a.dayCursor = 0
}

func (a *App) openFree() {
	free, err := a.planner.FreeSlots(a.selectedKey(), a.opts.MinFreeMinutes)
	if err != nil {
		a.errMsg = err.Error()
		return
	}
	a.free = newFreeModel(free)
	a.view = freeView
}

func (a *App) fetchSuggestions(date string, slot model.FreeSlot) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
		defer cancel()

		list := a.planner.SuggestForSlot(ctx, date, slot, a.opts.Location, a.opts.SuggestLimit)
		return suggestionsMsg{date: date, slot: slot, suggestions: list}
	}
}
