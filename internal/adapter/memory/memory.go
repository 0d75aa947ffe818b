// Package memory implements an in-memory key/value backend for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"dreamfront/internal/domain"
)

// DB implements an in-memory key/value store.
type DB struct {
	mu     sync.Mutex
	values map[string][]byte
}

// New creates a new in-memory store.
func New() *DB {
	return &DB{
		values: make(map[string][]byte),
	}
}

// Ensure interfaces are met.
var _ domain.KVBackend = (*DB)(nil)

// Get returns a copy of the value stored under key.
func (db *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a copy of value under key.
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	db.values[key] = v
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.values, key)
	return nil
}

// Clear removes every key.
func (db *DB) Clear(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.values = make(map[string][]byte)
	return nil
}

// Keys lists the stored keys in order.
func (db *DB) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	keys := make([]string, 0, len(db.values))
	for k := range db.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
