package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"flashdeck/internal/database"
	"flashdeck/internal/models"
	"flashdeck/internal/repository"
)

// BackupVersion is written to every export
const BackupVersion = "1.0"

// ErrUnsupportedBackup is returned for backups written by an incompatible version
var ErrUnsupportedBackup = errors.New("unsupported backup version")

// BackupData is the on-disk structure of a study history backup
type BackupData struct {
	Version      string                    `json:"version"`
	ExportedAt   time.Time                 `json:"exported_at"`
	DatabaseType string                    `json:"database_type"` // backend the export came from
	Sessions     []models.CompletedSession `json:"completed_sessions"`
}

// BackupService exports and imports study history
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes the study history to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting history export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	n, err := s.export(file)
	if err != nil {
		return err
	}

	log.Printf("Exported %d completed sessions to %s", n, outputPath)
	return nil
}

// ExportToWriter writes the study history to w
func (s *BackupService) ExportToWriter(w io.Writer) error {
	_, err := s.export(w)
	return err
}

func (s *BackupService) export(w io.Writer) (int, error) {
	sessions, err := repository.NewHistoryRepository(s.db).All()
	if err != nil {
		return 0, fmt.Errorf("failed to export history: %w", err)
	}

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().Name(),
		Sessions:     sessions,
	}
	if backup.Sessions == nil {
		backup.Sessions = []models.CompletedSession{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}
	return len(sessions), nil
}

// Import restores study history from a file
func (s *BackupService) Import(ctx context.Context, inputPath string) (int, error) {
	log.Printf("Starting history import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores study history from r. Sessions already present
// are skipped; the import is applied in a single transaction.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) (int, error) {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return 0, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedBackup, backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	imported := 0
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := repository.NewHistoryRepository(tx)
		for i := range backup.Sessions {
			c := backup.Sessions[i]
			exists, err := repo.Exists(c.SessionID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := repo.Record(&c); err != nil {
				return fmt.Errorf("failed to import session %s: %w", c.SessionID, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("History import completed: %d new, %d skipped", imported, len(backup.Sessions)-imported)
	return imported, nil
}

// ClearHistory deletes all completed sessions
func (s *BackupService) ClearHistory() error {
	n, err := repository.NewHistoryRepository(s.db).Clear()
	if err != nil {
		return err
	}
	log.Printf("Cleared %d completed sessions", n)
	return nil
}
