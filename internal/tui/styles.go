// Package tui is the bubbletea terminal front end for studying a deck.
package tui

import "github.com/charmbracelet/lipgloss"

// defaultAccentColor is the default accent color (indigo).
const defaultAccentColor = "#7D56F4"

var (
	colorWhite  = lipgloss.Color("#FAFAFA")
	colorGray   = lipgloss.Color("#888888")
	colorGreen  = lipgloss.Color("#6BCB77")
	colorYellow = lipgloss.Color("#FFD93D")
	colorRed    = lipgloss.Color("#FF6B6B")
)

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	frontStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	exampleStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	roundStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)
