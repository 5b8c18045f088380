package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and key presses
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.decks.SetSize(msg.Width, listHeight(msg.Height))
		return m, nil

	case decksLoadedMsg:
		m.decks = newDeckList(m.theme, msg.decks, m.width, listHeight(m.height))
		m.screen = screenPick
		m.err = nil
		return m, nil

	case sessionMsg:
		m.view = msg.view
		m.sessionID = msg.view.SessionID
		m.screen = screenCard
		m.pending = false
		m.err = nil
		return m, nil

	case finishedMsg:
		m.pending = false
		m.completed = msg.completed
		m.view = nil
		m.sessionID = ""
		m.screen = screenDone
		return m, nil

	case abandonedMsg:
		return m, tea.Quit

	case errMsg:
		m.pending = false
		m.err = msg.err
		if m.screen == screenLoading {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.screen == screenPick {
		var cmd tea.Cmd
		m.decks, cmd = m.decks.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		if m.sessionID != "" {
			return m, abandon(m.studier, m.sessionID)
		}
		return m, tea.Quit
	}

	switch m.screen {
	case screenPick:
		switch key {
		case "q", "esc":
			return m, tea.Quit
		case "enter":
			if item, ok := m.decks.SelectedItem().(deckItem); ok {
				return m, startDeck(m.studier, item.info.Name)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.decks, cmd = m.decks.Update(msg)
		return m, cmd

	case screenCard:
		if key == "q" || key == "esc" {
			return m, abandon(m.studier, m.sessionID)
		}
		if m.pending {
			return m, nil
		}
		switch key {
		case " ", "space":
			if !m.view.ShowAnswer {
				m.pending = true
				return m, showAnswer(m.studier, m.sessionID)
			}
		case "k", "r":
			if m.view.ShowAnswer {
				decision := "known"
				if key == "r" {
					decision = "review_again"
				}
				m.pending = true
				return m, decide(m.studier, m.sessionID, decision, m.view.CardIndex)
			}
		}
		return m, nil

	case screenDone:
		switch key {
		case "enter":
			m.completed = nil
			m.screen = screenLoading
			return m, loadDecks(m.studier)
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	if key == "q" {
		return m, tea.Quit
	}
	return m, nil
}

// listHeight leaves room for the header and help lines
func listHeight(height int) int {
	if height < 6 {
		return 1
	}
	return height - 4
}
