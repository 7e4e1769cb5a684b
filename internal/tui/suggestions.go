package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Natascha-cs/kalendr/internal/model"
	"github.com/Natascha-cs/kalendr/internal/slots"
)

type freeModel struct {
	slots       []model.FreeSlot
	cursor      int
	expanded    int // index into slots, -1 when collapsed
	suggestions []model.Suggestion
	sugCursor   int
	loading     bool
}

func newFreeModel(free []model.FreeSlot) freeModel {
	return freeModel{slots: free, expanded: -1}
}

func (m *freeModel) setSuggestions(msg suggestionsMsg) {
	if m.expanded < 0 || m.expanded >= len(m.slots) || m.slots[m.expanded] != msg.slot {
		return
	}
	m.loading = false
	m.suggestions = msg.suggestions
	m.sugCursor = 0
}

func (a *App) updateFree(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	m := &a.free

	switch keyMsg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "backspace":
		if m.expanded >= 0 {
			m.expanded = -1
			m.loading = false
			return a, nil
		}
		a.view = dayView
	case "up", "k":
		if m.expanded >= 0 {
			if m.sugCursor > 0 {
				m.sugCursor--
			}
		} else if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.expanded >= 0 {
			if m.sugCursor < len(m.suggestions)-1 {
				m.sugCursor++
			}
		} else if m.cursor < len(m.slots)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.slots) == 0 {
			return a, nil
		}
		if m.expanded == m.cursor {
			m.expanded = -1
			m.loading = false
			return a, nil
		}
		m.expanded = m.cursor
		m.suggestions = nil
		m.loading = true
		return a, tea.Batch(a.spinner.Tick, a.fetchSuggestions(a.selectedKey(), m.slots[m.cursor]))
	case "a":
		if m.expanded < 0 || m.loading || len(m.suggestions) == 0 {
			return a, nil
		}
		return a.acceptSelected()
	}
	return a, nil
}

func (a *App) acceptSelected() (tea.Model, tea.Cmd) {
	m := &a.free
	slot := m.slots[m.expanded]
	sug := m.suggestions[m.sugCursor]

	e, err := a.planner.AcceptSuggestion(a.selectedKey(), slot, sug)
	if err != nil && e.ID == "" {
		a.errMsg = err.Error()
		return a, nil
	}
	if err != nil {
		a.errMsg = err.Error()
	} else {
		a.status = fmt.Sprintf("Added %s (%s–%s)", e.Title, e.Start, e.End)
	}

	free, ferr := a.planner.FreeSlots(a.selectedKey(), a.opts.MinFreeMinutes)
	if ferr != nil {
		a.errMsg = ferr.Error()
		return a, nil
	}
	a.free = newFreeModel(free)
	return a, nil
}

func (m freeModel) View(day time.Time, spin string) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Free slots"))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(fmt.Sprintf("%s • %d min free",
		day.Format("Monday, 02. January 2006"), slots.TotalFree(m.slots))))
	sb.WriteString("\n")

	if len(m.slots) == 0 {
		sb.WriteString(dimStyle.Render("No free slots long enough."))
		sb.WriteString("\n")
	}

	for i, s := range m.slots {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s–%s  %4d min", prefix, s.Start, s.End, s.Duration)
		if i == m.cursor {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")

		if i == m.expanded {
			sb.WriteString(m.suggestionsView(spin))
		}
	}

	help := "enter: suggestions • j/k: nav • esc: back"
	if m.expanded >= 0 {
		help = "a: add to calendar • j/k: nav • enter/esc: collapse"
	}
	sb.WriteString(helpStyle.Render(help))
	return boxStyle.Render(sb.String())
}

func (m freeModel) suggestionsView(spin string) string {
	if m.loading {
		return "    " + spin + " Looking for ideas...\n"
	}
	if len(m.suggestions) == 0 {
		return "    " + dimStyle.Render("No suggestions.") + "\n"
	}

	var sb strings.Builder
	for i, s := range m.suggestions {
		if s.Placeholder {
			sb.WriteString("    " + warningStyle.Render(s.Title) + "\n")
			continue
		}
		prefix := "    "
		if i == m.sugCursor {
			prefix = "  » "
		}
		detail := s.Category
		if s.Location != "" {
			detail = strings.TrimPrefix(detail+", "+s.Location, ", ")
		}
		line := fmt.Sprintf("%s%-28s %3d min  %s", prefix, truncate(s.Title, 28), s.SuggestedMinutes, dimStyle.Render(detail))
		if i == m.sugCursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
