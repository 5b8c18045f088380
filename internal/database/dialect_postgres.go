package database

import (
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) DSN(config DialectConfig) (string, error) {
	if config.URL == "" {
		return "", errors.New("postgres: DATABASE_URL is empty")
	}
	return config.URL, nil
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

// SupportsLastInsertId is false; inserts get a RETURNING clause instead
func (d *PostgresDialect) SupportsLastInsertId() bool { return false }

func (d *PostgresDialect) ConfigureConnection(db *sql.DB, config DialectConfig) error {
	configurePool(db, config.MaxConns)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string { return "postgres" }

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) UpsertStudySessionQuery() string {
	return upsertStudySessionOnConflict
}
