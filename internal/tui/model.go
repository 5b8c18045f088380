package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"flashdeck/internal/models"
	"flashdeck/internal/service"
	"flashdeck/internal/study"
)

// Studier is the part of the study service the TUI drives
type Studier interface {
	Decks() ([]models.DeckInfo, error)
	Start(deckName string) (*study.Session, error)
	Current(id string) (*service.View, error)
	ShowAnswer(id string) (*service.View, error)
	Decide(id, decision string, shown int) (*service.View, error)
	Completed(id string) (*models.CompletedSession, error)
	Abandon(id string) error
}

type screen int

const (
	screenLoading screen = iota
	screenPick
	screenCard
	screenDone
)

// Model is the bubbletea model for a terminal study session
type Model struct {
	studier Studier
	theme   Theme
	width   int
	height  int

	screen      screen
	initialDeck string
	decks       list.Model

	sessionID string
	view      *service.View
	// pending is set while a reveal or decision is in flight
	pending   bool
	completed *models.CompletedSession
	err       error
}

type decksLoadedMsg struct{ decks []models.DeckInfo }

type sessionMsg struct{ view *service.View }

type finishedMsg struct{ completed *models.CompletedSession }

type abandonedMsg struct{}

type errMsg struct{ err error }

// New creates a model. With a deck name the session starts immediately;
// otherwise a deck picker is shown first.
func New(studier Studier, deck, accentColor string) Model {
	theme := NewTheme(accentColor)
	return Model{
		studier:     studier,
		theme:       theme,
		width:       80,
		height:      24,
		initialDeck: deck,
		decks:       newDeckList(theme, nil, 80, 20),
	}
}

// Init loads the deck list or starts the requested deck
func (m Model) Init() tea.Cmd {
	if m.initialDeck != "" {
		return startDeck(m.studier, m.initialDeck)
	}
	return loadDecks(m.studier)
}

// Err returns the error that ended the program, if any
func (m Model) Err() error {
	return m.err
}

// Completed returns the finished session, if the deck was completed
func (m Model) Completed() *models.CompletedSession {
	return m.completed
}

func loadDecks(s Studier) tea.Cmd {
	return func() tea.Msg {
		infos, err := s.Decks()
		if err != nil {
			return errMsg{err}
		}
		return decksLoadedMsg{decks: infos}
	}
}

func startDeck(s Studier, name string) tea.Cmd {
	return func() tea.Msg {
		sess, err := s.Start(name)
		if err != nil {
			return errMsg{err}
		}
		view, err := s.Current(sess.ID)
		if err != nil {
			return errMsg{err}
		}
		return sessionMsg{view: view}
	}
}

func showAnswer(s Studier, id string) tea.Cmd {
	return func() tea.Msg {
		view, err := s.ShowAnswer(id)
		if err != nil {
			return errMsg{err}
		}
		return sessionMsg{view: view}
	}
}

// decide applies decision to the card at index shown. If that card is no
// longer current the decision is dropped and the current card is shown.
func decide(s Studier, id, decision string, shown int) tea.Cmd {
	return func() tea.Msg {
		view, err := s.Decide(id, decision, shown)
		if errors.Is(err, service.ErrStaleDecision) {
			view, err = s.Current(id)
		}
		if err != nil {
			return errMsg{err}
		}
		if !view.Finished {
			return sessionMsg{view: view}
		}
		completed, err := s.Completed(id)
		if err != nil {
			return errMsg{err}
		}
		return finishedMsg{completed: completed}
	}
}

func abandon(s Studier, id string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Abandon(id); err != nil {
			return errMsg{err}
		}
		return abandonedMsg{}
	}
}
