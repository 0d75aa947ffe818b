// Package redis implements the key/value backend as one Redis hash per namespace.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dreamfront/internal/domain"
)

// ErrRedisUnavailable is returned when the server cannot be reached at open.
var ErrRedisUnavailable = errors.New("redis unavailable")

const keyPrefix = "dreamfront:"

var _ domain.KVBackend = (*Store)(nil)

// Store keeps the values of a namespace in the hash dreamfront:<namespace>.
type Store struct {
	rdb  redis.UniversalClient
	hash string
}

// NewStore wraps an existing client.
func NewStore(rdb redis.UniversalClient, namespace string) *Store {
	return &Store{rdb: rdb, hash: keyPrefix + namespace}
}

// Open parses url, connects and pings.
func Open(ctx context.Context, url, namespace string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return NewStore(rdb, namespace), nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.rdb.HGet(ctx, s.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set stores a value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.HSet(ctx, s.hash, key, value).Err()
}

// Delete removes a value.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.HDel(ctx, s.hash, key).Err()
}

// Clear removes the whole namespace hash.
func (s *Store) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.hash).Err()
}
