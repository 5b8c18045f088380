package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flashdeck/internal/database"
	"flashdeck/internal/study"
)

// ErrSessionNotFound is returned when no study session has the requested ID
var ErrSessionNotFound = errors.New("study session not found")

// stateRecord is the JSON shape of the state_json column: the scheduler
// state plus the round banner flag
type stateRecord struct {
	study.State
	RoundStarted bool `json:"round_started,omitempty"`
}

// StudySessionRepository stores live study sessions in SQL
type StudySessionRepository struct {
	db database.DBTX
}

// NewStudySessionRepository creates a new study session repository
func NewStudySessionRepository(db database.DBTX) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

// Save inserts the session or updates its mutable columns. The cards of
// an existing session are never rewritten.
func (r *StudySessionRepository) Save(s *study.Session) error {
	cardsJSON, err := json.Marshal(s.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}
	stateJSON, err := json.Marshal(stateRecord{State: s.State, RoundStarted: s.RoundStarted})
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	query := r.db.GetDialect().UpsertStudySessionQuery()
	_, err = r.db.Exec(query,
		s.ID,
		s.DeckName,
		string(cardsJSON),
		string(stateJSON),
		s.Reviews,
		s.ShowAnswer,
		s.StartedAt.UTC(),
		s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save study session: %w", err)
	}
	return nil
}

// Get retrieves a study session by ID
func (r *StudySessionRepository) Get(id string) (*study.Session, error) {
	query := `
		SELECT id, deck_name, cards_json, state_json, reviews, show_answer, started_at, updated_at
		FROM study_sessions
		WHERE id = ?
	`
	s, err := scanStudySession(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study session: %w", err)
	}
	return s, nil
}

// List retrieves live sessions, most recently active first
func (r *StudySessionRepository) List(limit int) ([]study.Session, error) {
	query := `
		SELECT id, deck_name, cards_json, state_json, reviews, show_answer, started_at, updated_at
		FROM study_sessions
		ORDER BY updated_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query study sessions: %w", err)
	}
	defer rows.Close()

	var sessions []study.Session
	for rows.Next() {
		s, err := scanStudySession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Delete removes a study session
func (r *StudySessionRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM study_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete study session: %w", err)
	}
	return nil
}

// DeleteIdle removes sessions not updated since before
func (r *StudySessionRepository) DeleteIdle(before time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM study_sessions WHERE updated_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudySession(row rowScanner) (*study.Session, error) {
	var s study.Session
	var cardsJSON, stateJSON string

	if err := row.Scan(
		&s.ID,
		&s.DeckName,
		&cardsJSON,
		&stateJSON,
		&s.Reviews,
		&s.ShowAnswer,
		&s.StartedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(cardsJSON), &s.Cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards of session %s: %w", s.ID, err)
	}
	var rec stateRecord
	if err := json.Unmarshal([]byte(stateJSON), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode state of session %s: %w", s.ID, err)
	}
	s.State = rec.State
	s.RoundStarted = rec.RoundStarted

	return &s, nil
}
