package models

import "time"

// CompletedSession is a finished study session kept for history
type CompletedSession struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	DeckName    string    `json:"deck_name"`
	TotalCards  int       `json:"total_cards"`
	Rounds      int       `json:"rounds"`
	Reviews     int       `json:"reviews"` // review_again decisions across all rounds
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Duration returns how long the session took
func (c CompletedSession) Duration() time.Duration {
	return c.CompletedAt.Sub(c.StartedAt)
}

// DeckSummary aggregates history for a single deck
type DeckSummary struct {
	DeckName    string
	Sessions    int
	AvgRounds   float64
	LastStudied *time.Time
}
