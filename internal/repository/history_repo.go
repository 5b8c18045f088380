package repository

import (
	"database/sql"
	"fmt"

	"flashdeck/internal/database"
	"flashdeck/internal/models"
)

// HistoryRepository handles completed study session records
type HistoryRepository struct {
	db database.DBTX
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db database.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record stores a completed session and sets its ID
func (r *HistoryRepository) Record(c *models.CompletedSession) error {
	query := `
		INSERT INTO completed_sessions (session_id, deck_name, total_cards, rounds, reviews, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		c.SessionID,
		c.DeckName,
		c.TotalCards,
		c.Rounds,
		c.Reviews,
		c.StartedAt.UTC(),
		c.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record completed session: %w", err)
	}
	c.ID = id
	return nil
}

// Recent retrieves the most recently completed sessions
func (r *HistoryRepository) Recent(limit int) ([]models.CompletedSession, error) {
	query := `
		SELECT id, session_id, deck_name, total_cards, rounds, reviews, started_at, completed_at
		FROM completed_sessions
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`
	return r.query(query, limit)
}

// All retrieves every completed session in completion order
func (r *HistoryRepository) All() ([]models.CompletedSession, error) {
	query := `
		SELECT id, session_id, deck_name, total_cards, rounds, reviews, started_at, completed_at
		FROM completed_sessions
		ORDER BY completed_at ASC, id ASC
	`
	return r.query(query)
}

// Exists reports whether a completion for sessionID is already recorded
func (r *HistoryRepository) Exists(sessionID string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM completed_sessions WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check completed session: %w", err)
	}
	return count > 0, nil
}

// GetBySessionID retrieves the completion record of a study session
func (r *HistoryRepository) GetBySessionID(sessionID string) (*models.CompletedSession, error) {
	query := `
		SELECT id, session_id, deck_name, total_cards, rounds, reviews, started_at, completed_at
		FROM completed_sessions
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	sessions, err := r.query(query, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrSessionNotFound
	}
	return &sessions[0], nil
}

// Clear deletes every completed session record
func (r *HistoryRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM completed_sessions")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.RowsAffected()
}

// DeckSummary aggregates the history of one deck
func (r *HistoryRepository) DeckSummary(deckName string) (*models.DeckSummary, error) {
	summary := &models.DeckSummary{DeckName: deckName}

	query := `
		SELECT COUNT(*), COALESCE(AVG(rounds), 0)
		FROM completed_sessions
		WHERE deck_name = ?
	`
	if err := r.db.QueryRow(query, deckName).Scan(&summary.Sessions, &summary.AvgRounds); err != nil {
		return nil, fmt.Errorf("failed to summarize deck: %w", err)
	}
	if summary.Sessions == 0 {
		return summary, nil
	}

	// Read the newest row rather than MAX(): SQLite returns aggregates of
	// DATETIME columns as plain text.
	var last sql.NullTime
	query = `
		SELECT completed_at
		FROM completed_sessions
		WHERE deck_name = ?
		ORDER BY completed_at DESC
		LIMIT 1
	`
	if err := r.db.QueryRow(query, deckName).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to get last study time: %w", err)
	}
	if last.Valid {
		summary.LastStudied = &last.Time
	}
	return summary, nil
}

func (r *HistoryRepository) query(query string, args ...interface{}) ([]models.CompletedSession, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.CompletedSession
	for rows.Next() {
		var c models.CompletedSession
		if err := rows.Scan(
			&c.ID,
			&c.SessionID,
			&c.DeckName,
			&c.TotalCards,
			&c.Rounds,
			&c.Reviews,
			&c.StartedAt,
			&c.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan completed session: %w", err)
		}
		sessions = append(sessions, c)
	}
	return sessions, rows.Err()
}
