package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Natascha-cs/kalendr/internal/calendar"
	"github.com/Natascha-cs/kalendr/internal/model"
)

func (a *App) updateMonth(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch keyMsg.String() {
	case "q":
		return a, tea.Quit
	case "left", "h":
		a.moveSelection(-1)
	case "right", "l":
		a.moveSelection(1)
	case "up", "k":
		a.moveSelection(-7)
	case "down", "j":
		a.moveSelection(7)
	case "[":
		a.state = a.state.ShiftMonth(-1)
	case "]":
		a.state = a.state.ShiftMonth(1)
	case "t":
		a.state = a.state.Select(a.today)
	case "enter":
		a.openDay()
	}
	return a, nil
}

func (a *App) moveSelection(days int) {
	a.state = a.state.Select(a.state.Selected.AddDate(0, 0, days))
}

func (a *App) monthView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s %d", a.state.Month, a.state.Year)))
	sb.WriteString("\n")

	header := make([]string, 0, 7)
	for _, name := range calendar.WeekdayNames {
		header = append(header, weekdayStyle.Render(name))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	sb.WriteString("\n")

	for _, week := range calendar.BuildMonthGrid(a.state.Year, a.state.Month) {
		cells := make([]string, 0, len(week))
		for _, d := range week {
			cells = append(cells, a.renderCell(d))
		}
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("←/→ day • ↑/↓ week • [/] month • t: today • enter: open day • q: quit"))
	return sb.String()
}

func (a *App) renderCell(d time.Time) string {
	if !calendar.InMonth(d, a.state.Month) {
		return cellStyle.Render("")
	}

	label := fmt.Sprintf("%2d", d.Day())
	if model.DateKey(d) == model.DateKey(a.today) {
		label = todayStyle.Render(label)
	}

	lines := []string{label}
	titles, more := a.planner.DaySummary(model.DateKey(d), a.opts.SummaryEvents)
	for _, t := range titles {
		lines = append(lines, truncate(t, cellWidth-1))
	}
	if more > 0 {
		lines[len(lines)-1] = truncate(lines[len(lines)-1], cellWidth-5) + dimStyle.Render(fmt.Sprintf(" +%d", more))
	}
	content := strings.Join(lines, "\n")

	if d.Equal(a.state.Selected) {
		return selectedCellStyle.Render(content)
	}
	return cellStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
