package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (a *App) updateDay(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	events := a.planner.Events(a.selectedKey())

	switch keyMsg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "backspace":
		a.view = monthView
	case "up", "k":
		if a.dayCursor > 0 {
			a.dayCursor--
		}
	case "down", "j":
		if a.dayCursor < len(events)-1 {
			a.dayCursor++
		}
	case "a":
		a.form = newFormModel()
		a.view = addView
		return a, a.form.focus()
	case "d":
		if len(events) == 0 {
			return a, nil
		}
		e := events[min(a.dayCursor, len(events)-1)]
		if err := a.planner.DeleteEvent(a.selectedKey(), e.ID); err != nil {
			a.errMsg = err.Error()
			return a, nil
		}
		a.status = "Deleted " + e.Title
		a.dayCursor = max(0, min(a.dayCursor, len(events)-2))
	case "f":
		a.openFree()
	}
	return a, nil
}

func (a *App) dayView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(a.state.Selected.Format("Monday, 02. January 2006")))
	sb.WriteString("\n")

	buckets := a.planner.HourBuckets(a.selectedKey())
	if len(buckets) == 0 {
		sb.WriteString(dimStyle.Render("No events for this day."))
		sb.WriteString("\n")
	}

	i := 0
	for _, b := range buckets {
		sb.WriteString(subtitleStyle.UnsetMarginBottom().Render(fmt.Sprintf("%02d:00", b.Hour)))
		sb.WriteString("\n")
		for _, e := range b.Events {
			prefix := "  "
			if i == a.dayCursor {
				prefix = "> "
			}
			line := fmt.Sprintf("%s%s–%s  %s", prefix, e.Start, e.End, e.Title)
			if i == a.dayCursor {
				line = highlightStyle.Render(line)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
			i++
		}
	}

	sb.WriteString(helpStyle.Render("a: add • d: delete • f: free slots • j/k: nav • esc: back"))
	return boxStyle.Render(sb.String())
}
