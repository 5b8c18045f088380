package database

import (
	"database/sql"
	"errors"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams are go-sqlite3 DSN options applied to every pooled
// connection. Immediate transactions take the write lock up front so a
// backup import never fails halfway on SQLITE_BUSY.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

func (d *SQLiteDialect) DSN(config DialectConfig) (string, error) {
	if config.Path == "" {
		return "", errors.New("sqlite: database path is empty")
	}
	sep := "?"
	if strings.Contains(config.Path, "?") {
		sep = "&"
	}
	return config.Path + sep + sqliteParams, nil
}

func (d *SQLiteDialect) RewriteQuery(query string) string { return query }

func (d *SQLiteDialect) SupportsLastInsertId() bool { return true }

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB, config DialectConfig) error {
	configurePool(db, config.MaxConns)
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string { return "sqlite" }

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) UpsertStudySessionQuery() string {
	return upsertStudySessionOnConflict
}
