// Package bolt implements the key/value backend on a local BoltDB file.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"dreamfront/internal/domain"
)

var _ domain.KVBackend = (*Store)(nil)

// Store provides a BoltDB-backed key/value store with one bucket per namespace.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens a BoltDB file at path and ensures the namespace bucket exists.
func Open(path, namespace string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if strings.TrimSpace(namespace) == "" {
		return nil, fmt.Errorf("storage namespace is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db, bucket: []byte(namespace)}
	if err := store.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(key)); v != nil {
			// Bolt values are only valid for the life of the transaction.
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return out, out != nil, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return fmt.Errorf("namespace bucket: %w", err)
		}
		return bucket.Put([]byte(key), value)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

// Clear drops and recreates the namespace bucket.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("drop namespace bucket: %w", err)
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}

func (s *Store) ensureBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return fmt.Errorf("create namespace bucket: %w", err)
		}
		return nil
	})
}
