package tui

import (
	"fmt"
	"strings"
	"time"
)

// View renders the current screen
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.header.Render("flashdeck"))
	b.WriteString("\n\n")

	switch m.screen {
	case screenLoading:
		b.WriteString(statusStyle.Render("Loading..."))
	case screenPick:
		if len(m.decks.Items()) == 0 {
			b.WriteString("No decks found. Add .xlsx or .csv files to the deck folder.")
		} else {
			b.WriteString(m.decks.View())
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter study · ↑/↓ move · q quit"))
	case screenCard:
		b.WriteString(m.cardView())
	case screenDone:
		b.WriteString(m.doneView())
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	}
	return b.String()
}

func (m Model) cardView() string {
	v := m.view
	var b strings.Builder

	b.WriteString(statusStyle.Render(fmt.Sprintf("%s · round %d · %d/%d known · %d left this round · %d for next round",
		v.DeckName, v.Status.Round, v.Status.Known, v.Status.Total, v.Status.RemainingActive, v.Status.RemainingRetry)))
	b.WriteString("\n")
	if v.RoundStarted {
		b.WriteString(roundStyle.Render(fmt.Sprintf("Round %d begins", v.Status.Round)))
		b.WriteString("\n")
	}

	var card strings.Builder
	card.WriteString(frontStyle.Render(v.Card.Front))
	if v.ShowAnswer {
		card.WriteString("\n\n")
		card.WriteString(m.theme.answer.Render(v.Card.Back))
		if v.Card.Explanation != "" {
			card.WriteString("\n")
			card.WriteString(v.Card.Explanation)
		}
		if v.Card.Example != "" {
			card.WriteString("\n")
			card.WriteString(exampleStyle.Render(v.Card.Example))
		}
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	b.WriteString(m.theme.card.Width(width).Render(card.String()))
	b.WriteString("\n")

	if v.ShowAnswer {
		b.WriteString(helpStyle.Render("k known · r review again · q quit"))
	} else {
		b.WriteString(helpStyle.Render("space show answer · q quit"))
	}
	return b.String()
}

func (m Model) doneView() string {
	c := m.completed
	if c == nil {
		return doneStyle.Render("Deck complete!")
	}
	return fmt.Sprintf("%s\n\n%d cards · %d rounds · %d reviewed again · %s\n\n%s",
		doneStyle.Render(fmt.Sprintf("Finished %s!", c.DeckName)),
		c.TotalCards, c.Rounds, c.Reviews, c.Duration().Round(time.Second),
		helpStyle.Render("enter choose another deck · q quit"))
}
