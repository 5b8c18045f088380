package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flashdeck/internal/config"
	"flashdeck/internal/database"
	"flashdeck/internal/decks"
	"flashdeck/internal/handlers"
	"flashdeck/internal/repository"
	"flashdeck/internal/security"
	"flashdeck/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration:\n%v", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", db.Dialect.Name())

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	templates, err := handlers.LoadTemplates()
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Println("Warning: SESSION_SECRET is not set; sessions will not survive a restart")
	}
	keys, err := security.DeriveKeys(secret)
	if err != nil {
		log.Fatalf("Failed to derive keys: %v", err)
	}

	// Initialize repositories
	var store service.SessionStore
	switch cfg.SessionStore {
	case "memory":
		store = repository.NewMemorySessionStore()
	default:
		store = repository.NewStudySessionRepository(db)
	}
	historyRepo := repository.NewHistoryRepository(db)

	// Initialize services
	library := decks.NewLibrary(cfg.DeckFolder)
	studyService := service.NewStudyService(library, store, historyRepo)

	log.Printf("Serving decks from %s (session store: %s)", library.Dir(), cfg.SessionStore)

	// Initialize handlers
	tokens := security.NewSessionTokens(keys.Session, cfg.SessionDuration)
	csrf := security.NewCSRFGenerator(keys.CSRF)
	limiter := security.NewRateLimiter(cfg.StartRateLimit, time.Minute)
	defer limiter.Stop()

	middleware := handlers.NewMiddleware(tokens, csrf, limiter)
	studyHandler := handlers.NewStudyHandler(studyService, tokens, csrf, middleware, templates)

	mux := http.NewServeMux()
	studyHandler.RegisterRoutes(mux)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go cleanupIdleSessions(ctx, studyService, cfg.CleanupInterval, cfg.SessionIdleTimeout)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// cleanupIdleSessions periodically removes sessions idle longer than maxIdle
func cleanupIdleSessions(ctx context.Context, studyService *service.StudyService, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := studyService.CleanupIdleSessions(maxIdle); err != nil {
				log.Printf("Error cleaning up idle sessions: %v", err)
			}
		}
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}
