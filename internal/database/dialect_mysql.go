package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN normalizes the configured DSN so DATETIME columns scan into
// time.Time values in UTC whatever the URL says
func (d *MySQLDialect) DSN(config DialectConfig) (string, error) {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return "", fmt.Errorf("mysql: invalid DATABASE_URL: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func (d *MySQLDialect) RewriteQuery(query string) string { return query }

func (d *MySQLDialect) SupportsLastInsertId() bool { return true }

func (d *MySQLDialect) ConfigureConnection(db *sql.DB, config DialectConfig) error {
	configurePool(db, config.MaxConns)
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string { return "mysql" }

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

// UpsertStudySessionQuery uses ON DUPLICATE KEY since MySQL has no ON CONFLICT
func (d *MySQLDialect) UpsertStudySessionQuery() string {
	return "INSERT INTO study_sessions (id, deck_name, cards_json, state_json, reviews, show_answer, started_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE state_json = VALUES(state_json), reviews = VALUES(reviews), " +
		"show_answer = VALUES(show_answer), updated_at = VALUES(updated_at)"
}
