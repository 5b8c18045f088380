package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen study program and blocks until it exits
func Run(studier Studier, deck, accentColor string) (Model, error) {
	p := tea.NewProgram(New(studier, deck, accentColor), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Model{}, err
	}
	m, _ := final.(Model)
	return m, m.Err()
}
