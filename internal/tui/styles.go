package tui

import "github.com/charmbracelet/lipgloss"

const cellWidth = 14

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Height(3)

	selectedCellStyle = cellStyle.
				Background(lipgloss.Color("236")).
				Foreground(lipgloss.Color("10"))

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Underline(true)

	weekdayStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Bold(true).
			Foreground(lipgloss.Color("12"))
)
