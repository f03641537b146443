// Package db wraps the sqlite connection, schema bootstrap, and the
// explicit unit-of-work helper that stands in for annotation-driven
// transactions (see SPEC_FULL.md §9).
package db

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the pooled sqlite connection.
type DB struct {
	conn *sqlx.DB
	path string
}

// Open creates (if needed) and opens the sqlite database at path, with WAL
// mode and foreign keys enabled.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// sqlite only supports a single writer; keep the pool small so busy_timeout
	// (not connection contention) is what serializes concurrent writers.
	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(4)

	return &DB{conn: conn, path: path}, nil
}

// Conn returns the underlying *sqlx.DB, used both for standalone queries
// and as the connection WithinTx opens transactions on.
func (db *DB) Conn() *sqlx.DB { return db.conn }

// Close closes the connection pool.
func (db *DB) Close() error { return db.conn.Close() }

// ApplySchema creates every table/index declared in schema.sql if absent.
// This is intentionally not a migration framework (out of scope per
// SPEC_FULL.md §1) — just enough to stand the database up from nothing.
func (db *DB) ApplySchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
