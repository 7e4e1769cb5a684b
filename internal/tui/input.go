package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldTitle = iota
	fieldStart
	fieldEnd
	fieldCount
)

type formModel struct {
	inputs  []textinput.Model
	focused int
	warning string
}

func newFormModel() formModel {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		ti.Width = 40
		inputs[i] = ti
	}
	inputs[fieldTitle].Placeholder = "Title"
	inputs[fieldStart].Placeholder = "Start (HH:MM)"
	inputs[fieldStart].CharLimit = 5
	inputs[fieldEnd].Placeholder = "End (HH:MM)"
	inputs[fieldEnd].CharLimit = 5

	return formModel{inputs: inputs}
}

func (m *formModel) focus() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m.inputs[m.focused].Focus()
}

func (m *formModel) next(delta int) tea.Cmd {
	m.focused = (m.focused + delta + fieldCount) % fieldCount
	return m.focus()
}

func (m formModel) values() (title, start, end string) {
	return strings.TrimSpace(m.inputs[fieldTitle].Value()),
		strings.TrimSpace(m.inputs[fieldStart].Value()),
		strings.TrimSpace(m.inputs[fieldEnd].Value())
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m formModel) View(day time.Time) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("New event"))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(day.Format("Monday, 02. January 2006")))
	sb.WriteString("\n")

	for i, in := range m.inputs {
		sb.WriteString(in.View())
		if i < len(m.inputs)-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	if m.warning != "" {
		sb.WriteString("\n")
		sb.WriteString(warningStyle.Render(m.warning))
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("Tab: next field • Enter: save • Esc: cancel"))
	return boxStyle.Render(sb.String())
}

func (a *App) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.view = dayView
			return a, nil
		case "tab", "down":
			return a, a.form.next(1)
		case "shift+tab", "up":
			return a, a.form.next(-1)
		case "enter":
			return a.submitForm()
		}
	}

	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	return a, cmd
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	title, start, end := a.form.values()
	e, err := a.planner.AddEvent(a.selectedKey(), title, start, end)
	if err != nil && e.ID == "" {
		// invalid input: keep the form open
		a.form.warning = err.Error()
		return a, nil
	}

	a.view = dayView
	if err != nil {
		a.errMsg = err.Error()
		return a, nil
	}
	a.status = "Added " + e.Title
	return a, nil
}
