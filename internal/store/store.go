// Package store manages the SQLite database file that holds the
// generated dataset: connection lifecycle, table definitions with
// dependency-checked creation, and transactional persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the connection to the SQLite dataset file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite file at path and
// verifies the connection. Foreign key enforcement is switched on for
// the session.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; a pool of one connection also
	// keeps session PRAGMAs effective for every statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle for read-only consumers.
func (s *Store) DB() *sql.DB {
	return s.db
}
