package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"flashdeck/internal/models"
)

// deckItem wraps a models.DeckInfo as a list.Item
type deckItem struct {
	info models.DeckInfo
}

func (d deckItem) Title() string       { return d.info.Name }
func (d deckItem) Description() string { return d.info.Format }
func (d deckItem) FilterValue() string { return d.info.Name }

// deckDelegate renders one deck per line
type deckDelegate struct {
	theme Theme
}

func (d deckDelegate) Height() int                             { return 1 }
func (d deckDelegate) Spacing() int                            { return 0 }
func (d deckDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d deckDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	di, ok := item.(deckItem)
	if !ok {
		return
	}
	s := fmt.Sprintf("%s  %s", di.Title(), statusStyle.Render("("+di.Description()+")"))
	if index == m.Index() {
		s = d.theme.cursor.Render("> ") + s
	} else {
		s = "  " + s
	}
	_, _ = fmt.Fprint(w, s)
}

func newDeckList(theme Theme, infos []models.DeckInfo, w, h int) list.Model {
	items := make([]list.Item, len(infos))
	for i, info := range infos {
		items[i] = deckItem{info: info}
	}
	l := list.New(items, deckDelegate{theme: theme}, w, h)
	l.Title = "Choose a deck"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}
