package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles derived from the accent color
type Theme struct {
	header lipgloss.Style
	card   lipgloss.Style
	answer lipgloss.Style
	cursor lipgloss.Style
}

// NewTheme creates a Theme from a hex accent color such as "#7D56F4".
// An empty string selects the default accent.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if accentColor != "" {
		color = accentColor
	}
	c := lipgloss.Color(color)
	return Theme{
		header: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(1, 2),
		answer: lipgloss.NewStyle().
			Foreground(c).
			Bold(true),
		cursor: lipgloss.NewStyle().
			Foreground(c).
			Bold(true),
	}
}
