package ui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors for light/dark terminal backgrounds.
var (
	accentColor = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#8BE9FD"}
	greenColor  = lipgloss.AdaptiveColor{Light: "#116620", Dark: "#50FA7B"}
	redColor    = lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"}
	dimColor    = lipgloss.AdaptiveColor{Light: "#777777", Dark: "#6272A4"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	statusRunning = lipgloss.NewStyle().
			Foreground(greenColor)

	statusDead = lipgloss.NewStyle().
			Foreground(redColor).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	errStyle = lipgloss.NewStyle().
			Foreground(redColor).
			PaddingLeft(1)
)
