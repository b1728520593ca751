package ui

import "github.com/charmbracelet/lipgloss"

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("244"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("25"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	chartStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Padding(1, 0)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	errorBannerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("124")).
				Padding(0, 1)

	flashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)
