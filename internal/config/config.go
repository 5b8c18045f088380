// Package config loads flashdeck configuration from the environment, an
// optional .env file, and an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort         string        `toml:"server_port"`
	DatabaseType       string        `toml:"database_type"` // sqlite, postgres or mysql
	DatabasePath       string        `toml:"database_path"`
	DatabaseURL        string        `toml:"database_url"`
	DatabaseMaxConns   int           `toml:"database_max_conns"`
	DeckFolder         string        `toml:"deck_folder"`
	SessionStore       string        `toml:"session_store"` // sql or memory
	SessionDuration    time.Duration `toml:"session_duration"`
	SessionIdleTimeout time.Duration `toml:"session_idle_timeout"`
	CleanupInterval    time.Duration `toml:"cleanup_interval"`
	SessionSecret      string        `toml:"session_secret"`
	StartRateLimit     int           `toml:"start_rate_limit"` // deck starts per minute per client
	AccentColor        string        `toml:"accent_color"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerPort:         "8080",
		DatabaseType:       "sqlite",
		DatabasePath:       "./flashdeck.db",
		DatabaseMaxConns:   10,
		DeckFolder:         "./decks",
		SessionStore:       "sql",
		SessionDuration:    24 * time.Hour,
		SessionIdleTimeout: 6 * time.Hour,
		CleanupInterval:    1 * time.Hour,
		StartRateLimit:     30,
		AccentColor:        "#7D56F4",
	}
}

// Load reads configuration with this precedence, highest first:
// environment variables, the TOML file named by FLASHDECK_CONFIG, defaults.
// A .env file in the working directory is loaded into the environment first
// without overriding variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()

	if path := os.Getenv("FLASHDECK_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays values from a TOML file onto cfg. Durations are
// written as strings such as "30m".
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.DatabaseType = getEnv("DATABASE_TYPE", c.DatabaseType)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DeckFolder = getEnv("DECK_FOLDER", c.DeckFolder)
	c.SessionStore = getEnv("SESSION_STORE", c.SessionStore)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.AccentColor = getEnv("ACCENT_COLOR", c.AccentColor)

	var errs []error
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_DURATION", &c.SessionDuration},
		{"SESSION_IDLE_TIMEOUT", &c.SessionIdleTimeout},
		{"CLEANUP_INTERVAL", &c.CleanupInterval},
	} {
		if raw := os.Getenv(d.key); raw != "" {
			v, err := time.ParseDuration(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", d.key, err))
				continue
			}
			*d.dst = v
		}
	}

	for _, n := range []struct {
		key string
		dst *int
	}{
		{"START_RATE_LIMIT", &c.StartRateLimit},
		{"DB_MAX_CONNS", &c.DatabaseMaxConns},
	} {
		if raw := os.Getenv(n.key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", n.key, err))
				continue
			}
			*n.dst = v
		}
	}

	return errors.Join(errs...)
}

// Validate checks the configuration for problems that would only show up
// at runtime. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			errs = append(errs, fmt.Errorf("database path must be set for sqlite"))
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL must be set for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database type: %s", c.DatabaseType))
	}

	if c.DatabaseMaxConns <= 0 {
		errs = append(errs, fmt.Errorf("database max connections must be positive"))
	}
	if c.SessionStore != "sql" && c.SessionStore != "memory" {
		errs = append(errs, fmt.Errorf("session store must be sql or memory, got %q", c.SessionStore))
	}
	if c.DeckFolder == "" {
		errs = append(errs, fmt.Errorf("deck folder must not be empty"))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, fmt.Errorf("session duration must be positive"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session idle timeout must be positive"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("cleanup interval must be positive"))
	}
	if c.StartRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("start rate limit must be positive"))
	}

	return errors.Join(errs...)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
