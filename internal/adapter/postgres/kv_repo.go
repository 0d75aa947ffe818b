// Package postgres implements the key/value backend using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dreamfront/internal/domain"
)

var _ domain.KVBackend = (*KVRepo)(nil)

// KVRepo stores values of one namespace in the kv table.
type KVRepo struct {
	db        *DB
	namespace string
}

// NewKVRepo wraps a DB as a KVBackend scoped to namespace.
func NewKVRepo(db *DB, namespace string) *KVRepo {
	return &KVRepo{db: db, namespace: namespace}
}

// Get retrieves a value by key.
func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE namespace = $1 AND key = $2",
		r.namespace, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set inserts or replaces a value.
func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO kv (namespace, key, value, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at",
		r.namespace, key, value, time.Now().UTC(),
	)
	return err
}

// Delete deletes a value by key.
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM kv WHERE namespace = $1 AND key = $2", r.namespace, key)
	return err
}

// Clear deletes every value in the namespace.
func (r *KVRepo) Clear(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM kv WHERE namespace = $1", r.namespace)
	return err
}
