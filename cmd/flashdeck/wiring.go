package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"flashdeck/internal/config"
	"flashdeck/internal/database"
	"flashdeck/internal/decks"
	"flashdeck/internal/repository"
	"flashdeck/internal/service"
)

// app bundles the services a command needs
type app struct {
	cfg     *config.Config
	db      *database.DB
	library *decks.Library
	study   *service.StudyService
	backup  *service.BackupService
}

// openApp loads configuration, opens and migrates the database and wires
// the services. Callers must Close the app.
func openApp(cmd *cobra.Command) (*app, error) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		log.SetOutput(io.Discard)
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("FLASHDECK_CONFIG", path); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	var store service.SessionStore
	switch cfg.SessionStore {
	case "memory":
		store = repository.NewMemorySessionStore()
	default:
		store = repository.NewStudySessionRepository(db)
	}

	library := decks.NewLibrary(cfg.DeckFolder)
	return &app{
		cfg:     cfg,
		db:      db,
		library: library,
		study:   service.NewStudyService(library, store, repository.NewHistoryRepository(db)),
		backup:  service.NewBackupService(db),
	}, nil
}

// Close releases the database
func (a *app) Close() error {
	return a.db.Close()
}
