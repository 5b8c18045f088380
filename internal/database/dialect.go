package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the differences between the supported SQL backends
type Dialect interface {
	// Name is the canonical backend name: sqlite, postgres or mysql
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN builds the data source name passed to sql.Open
	DSN(config DialectConfig) (string, error)

	// RewriteQuery converts ? placeholders where the driver needs another syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether sql.Result.LastInsertId works
	SupportsLastInsertId() bool

	// ConfigureConnection sizes the pool and applies backend settings
	ConfigureConnection(db *sql.DB, config DialectConfig) error

	// MigrationsSubdir names the embedded migrations directory
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertStudySessionQuery returns an insert-or-update statement for
	// study_sessions taking id, deck_name, cards_json, state_json, reviews,
	// show_answer, started_at, updated_at in that order
	UpsertStudySessionQuery() string
}

// DialectConfig holds connection settings
type DialectConfig struct {
	// Path is the SQLite database file
	Path string

	// URL is the PostgreSQL or MySQL connection string
	URL string

	// MaxConns caps open connections; zero means defaultMaxConns
	MaxConns int
}

const defaultMaxConns = 10

// DialectFor returns the dialect for a configured database type
func DialectFor(databaseType string) (Dialect, error) {
	switch strings.ToLower(databaseType) {
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", databaseType)
	}
}

// configurePool keeps about a fifth of the connections idle and recycles
// them every few minutes
func configurePool(db *sql.DB, maxConns int) {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(max(1, maxConns/5))
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// upsertStudySessionOnConflict serves SQLite and PostgreSQL. The deck
// snapshot and start time never change after the first insert.
const upsertStudySessionOnConflict = `
	INSERT INTO study_sessions (id, deck_name, cards_json, state_json, reviews, show_answer, started_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		state_json = excluded.state_json,
		reviews = excluded.reviews,
		show_answer = excluded.show_answer,
		updated_at = excluded.updated_at
`
