// Package sqlite implements the key/value backend on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dreamfront/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (namespace, key)
);
`

var _ domain.KVBackend = (*Store)(nil)

// Store persists values of one namespace in SQLite.
type Store struct {
	db        *sql.DB
	namespace string
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path, namespace string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store open: %w", err)
	}
	// A single connection keeps writes serialized on the file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store create schema: %w", err)
	}
	return &Store{db: db, namespace: namespace}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `
SELECT value FROM kv
WHERE namespace = ? AND key = ?`, s.namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite store get %q: %w", key, err)
	}
	return v, true, nil
}

// Set inserts or replaces a value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (namespace, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.namespace, key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite store set %q: %w", key, err)
	}
	return nil
}

// Delete removes a value by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ? AND key = ?`, s.namespace, key); err != nil {
		return fmt.Errorf("sqlite store delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every value in the namespace.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("sqlite store clear: %w", err)
	}
	return nil
}
