package study

import (
	"time"

	"flashdeck/internal/models"
)

// Session is one persisted study session: the deck snapshot taken at
// start, the scheduler state, and the flags the hosting layer renders
// alongside the current card.
type Session struct {
	ID       string
	DeckName string
	Cards    []models.Card
	State    State
	Reviews  int // review_again decisions across all rounds
	// RoundStarted marks the first card drawn after a round boundary
	RoundStarted bool
	ShowAnswer   bool
	StartedAt    time.Time
	UpdatedAt    time.Time
}

// Resume rebuilds sched from the session's snapshot and state
func (s *Session) Resume(sched *Scheduler) error {
	snap, err := Load(s.DeckName, s.Cards)
	if err != nil {
		return err
	}
	return sched.Restore(snap, s.State)
}

// Capture stores the scheduler's current state in the session
func (s *Session) Capture(sched *Scheduler) error {
	st, err := sched.State()
	if err != nil {
		return err
	}
	s.State = st
	return nil
}
