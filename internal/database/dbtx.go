package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is what repositories need from a connection. Both *DB and *Tx
// satisfy it, so a repository built on a Tx joins that transaction.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	ExecReturningID(query string, args ...interface{}) (int64, error)
	GetDialect() Dialect
}

// querier is the part of *sql.DB and *sql.Tx that conn wraps
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// conn rewrites placeholders for its dialect before delegating
type conn struct {
	q       querier
	dialect Dialect
}

func (c conn) Exec(query string, args ...interface{}) (sql.Result, error) {
	return c.q.Exec(c.dialect.RewriteQuery(query), args...)
}

func (c conn) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.q.Query(c.dialect.RewriteQuery(query), args...)
}

func (c conn) QueryRow(query string, args ...interface{}) *sql.Row {
	return c.q.QueryRow(c.dialect.RewriteQuery(query), args...)
}

func (c conn) ExecReturningID(query string, args ...interface{}) (int64, error) {
	return execReturningID(c.q, c.dialect, query, args...)
}

func (c conn) GetDialect() Dialect {
	return c.dialect
}

// Tx is a transaction whose statements go through the dialect
type Tx struct {
	conn
	tx *sql.Tx
}

// Commit commits the transaction
func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

// Rollback aborts the transaction
func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

// Begin starts a transaction
func (db *DB) Begin() (*Tx, error) {
	return db.BeginTx(context.Background())
}

// BeginTx starts a transaction bound to ctx
func (db *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{conn: conn{q: tx, dialect: db.Dialect}, tx: tx}, nil
}

// GetDialect returns the database dialect
func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; a panic is re-raised after the rollback.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}
