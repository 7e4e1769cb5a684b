package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Natascha-cs/kalendr/internal/app"
	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/store"
	"github.com/Natascha-cs/kalendr/internal/suggest"
)

type stubSource struct {
	result []model.Suggestion
	err    error
}

func (s stubSource) Suggest(ctx context.Context, req suggest.Request) ([]model.Suggestion, error) {
	return s.result, s.err
}

func newTestApp(t *testing.T, src suggest.Source) (*App, *app.Planner) {
	t.Helper()
	adapter := suggest.NewAdapter(src, suggest.Berlin, 0, time.Second, nil)
	planner := app.NewPlanner(store.NewEventStore(filepath.Join(t.TempDir(), "events.json"), nil), adapter, nil, nil)
	state := app.NewState(time.Date(2025, 6, 12, 0, 0, 0, 0, time.Local))
	a := NewApp(planner, state, Options{MinFreeMinutes: 60, SummaryEvents: 2, SuggestLimit: 5})
	a.today = time.Date(2025, 6, 12, 9, 0, 0, 0, time.Local)
	return a, planner
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(a *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = a.Update(key(k))
	}
	return cmd
}

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// runBatch executes cmd and any batched commands, feeding results back.
func runBatch(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runBatch(a, c)
		}
		return
	}
	if msg != nil {
		a.Update(msg)
	}
}

func TestMonthNavigation(t *testing.T) {
	a, _ := newTestApp(t, stubSource{})

	press(a, "right")
	if a.state.SelectedKey() != "2025-06-13" {
		t.Errorf("expected 2025-06-13, got %s", a.state.SelectedKey())
	}
	press(a, "down")
	if a.state.SelectedKey() != "2025-06-20" {
		t.Errorf("expected 2025-06-20, got %s", a.state.SelectedKey())
	}
	press(a, "down", "down")
	if a.state.Month != time.July || a.state.SelectedKey() != "2025-07-04" {
		t.Errorf("expected selection to roll into July, got %+v", a.state)
	}
	press(a, "[")
	if a.state.Month != time.June || a.state.SelectedKey() != "2025-06-04" {
		t.Errorf("expected June after [, got %+v", a.state)
	}
	press(a, "t")
	if a.state.SelectedKey() != "2025-06-12" {
		t.Errorf("expected today, got %s", a.state.SelectedKey())
	}

	view := a.View()
	if !strings.Contains(view, "June 2025") || !strings.Contains(view, "Mo") {
		t.Errorf("month view missing header:\n%s", view)
	}
}

func TestMonthView_ShowsSummary(t *testing.T) {
	a, planner := newTestApp(t, stubSource{})
	planner.AddEvent("2025-06-12", "Dentist", "09:00", "10:00")

	if view := a.View(); !strings.Contains(view, "Dentist") {
		t.Errorf("expected event title in grid:\n%s", view)
	}
}

func TestAddForm(t *testing.T) {
	a, planner := newTestApp(t, stubSource{})
	press(a, "enter")
	if a.view != dayView {
		t.Fatalf("expected day view, got %d", a.view)
	}

	press(a, "a")
	if a.view != addView {
		t.Fatalf("expected add view, got %d", a.view)
	}
	typeText(a, "Yoga")
	press(a, "tab")
	typeText(a, "18:00")
	press(a, "tab")
	typeText(a, "17:00")
	press(a, "enter")

	if a.view != addView || a.form.warning == "" {
		t.Fatalf("expected warning for invalid range, view=%d warning=%q", a.view, a.form.warning)
	}
	if !strings.Contains(a.View(), a.form.warning) {
		t.Error("warning not rendered")
	}
	if len(planner.Events("2025-06-12")) != 0 {
		t.Error("invalid event was stored")
	}

	for range 5 {
		a.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	typeText(a, "19:00")
	press(a, "enter")

	if a.view != dayView {
		t.Fatalf("expected return to day view, got %d (warning %q)", a.view, a.form.warning)
	}
	events := planner.Events("2025-06-12")
	if len(events) != 1 || events[0].Title != "Yoga" || events[0].End != model.NewClock(19, 0) {
		t.Errorf("unexpected events %v", events)
	}
	if !strings.Contains(a.View(), "Yoga") {
		t.Errorf("day view missing event:\n%s", a.View())
	}
}

func TestDeleteFromDayView(t *testing.T) {
	a, planner := newTestApp(t, stubSource{})
	planner.AddEvent("2025-06-12", "First", "08:00", "09:00")
	planner.AddEvent("2025-06-12", "Second", "10:00", "11:00")

	press(a, "enter", "down", "d")
	events := planner.Events("2025-06-12")
	if len(events) != 1 || events[0].Title != "First" {
		t.Errorf("expected Second to be deleted, got %v", events)
	}
	if a.dayCursor != 0 {
		t.Errorf("expected cursor to move back, got %d", a.dayCursor)
	}
}

func TestFreeSlotsAndAccept(t *testing.T) {
	sug := model.Suggestion{Title: "Museum", Category: "museum", SuggestedMinutes: 90}
	a, planner := newTestApp(t, stubSource{result: []model.Suggestion{sug}})
	planner.AddEvent("2025-06-12", "Work", "00:00", "13:00")
	planner.AddEvent("2025-06-12", "Dinner", "14:00", "23:59")

	press(a, "enter", "f")
	if a.view != freeView || len(a.free.slots) != 1 {
		t.Fatalf("expected free view with one slot, got view=%d slots=%v", a.view, a.free.slots)
	}

	cmd := press(a, "enter")
	if !a.free.loading {
		t.Fatal("expected loading state while suggestions are fetched")
	}
	if !strings.Contains(a.View(), "Looking for ideas") {
		t.Errorf("expected spinner text:\n%s", a.View())
	}
	runBatch(a, cmd)
	if a.free.loading || len(a.free.suggestions) != 1 {
		t.Fatalf("expected suggestions to arrive, got %+v", a.free)
	}

	press(a, "a")
	events := planner.Events("2025-06-12")
	if len(events) != 3 {
		t.Fatalf("expected accepted event, got %v", events)
	}
	if events[1].Title != "Museum" || events[1].End != model.NewClock(14, 0) {
		t.Errorf("expected clipped museum event, got %s", events[1])
	}
	if len(a.free.slots) != 0 {
		t.Errorf("expected free slots to be recomputed, got %v", a.free.slots)
	}
}

func TestFreeSlots_PlaceholderCannotBeAdded(t *testing.T) {
	a, planner := newTestApp(t, stubSource{err: errors.New("offline")})

	press(a, "enter", "f")
	runBatch(a, press(a, "enter"))

	if len(a.free.suggestions) != 1 || !a.free.suggestions[0].Placeholder {
		t.Fatalf("expected placeholder, got %+v", a.free.suggestions)
	}
	if !strings.Contains(a.View(), "offline") {
		t.Errorf("placeholder text not shown:\n%s", a.View())
	}

	press(a, "a")
	if a.errMsg == "" {
		t.Error("expected an error message for placeholder")
	}
	if len(planner.Events("2025-06-12")) != 0 {
		t.Error("placeholder must not be added")
	}
}

func TestStaleSuggestionsIgnored(t *testing.T) {
	a, _ := newTestApp(t, stubSource{})
	press(a, "enter", "f")
	press(a, "enter", "esc")

	a.Update(suggestionsMsg{slot: a.free.slots[0], suggestions: []model.Suggestion{{Title: "late"}}})
	if len(a.free.suggestions) != 0 {
		t.Error("suggestions for a collapsed slot should be dropped")
	}
}

func TestQuit(t *testing.T) {
	a, _ := newTestApp(t, stubSource{})
	_, cmd := a.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
