package models

import "github.com/charmbracelet/lipgloss"

var (
	highlight  = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	focusColor = lipgloss.Color("#F25D94")

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	optionsStyle = lipgloss.NewStyle().
			Align(lipgloss.Left).
			Foreground(lipgloss.Color("#FAFAFA"))

	checkboxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	checkboxHighlightStyle = lipgloss.NewStyle().
				Foreground(focusColor).
				Bold(true)

	windowStyle = lipgloss.NewStyle().
			Align(lipgloss.Left).
			Foreground(lipgloss.Color("#FAFAFA")).
			BorderForeground(highlight)

	statusText = lipgloss.NewStyle().
			Align(lipgloss.Left).
			MarginTop(1).
			Foreground(lipgloss.Color("#FAFAFA"))

	helpText = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("#767676"))

	header = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(highlight).
		MarginRight(2)

	lockedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD35F")).Bold(true)
	unlockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")).Bold(true)
	ringingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6AB0FF")).Bold(true)
	intruderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
	noAlertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)
