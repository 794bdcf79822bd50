package ui

import "github.com/charmbracelet/lipgloss"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	noteFg    = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	keyBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
	errorFg   = lipgloss.AdaptiveColor{Light: "#D7005F", Dark: "#FF5F87"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1).
			Render

	keyStyle = lipgloss.NewStyle().
			Foreground(noteFg).
			Background(keyBg).
			Padding(0, 2).
			Margin(0, 1, 1, 0)

	selectedKeyStyle = keyStyle.
				Foreground(mintGreen).
				Background(darkGreen).
				Bold(true)

	dialedStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true).
			Render

	noteStyle = lipgloss.NewStyle().
			Foreground(noteFg).
			Render

	errorStyle = lipgloss.NewStyle().
			Foreground(errorFg).
			Render
)
