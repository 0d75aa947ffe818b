package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"dreamfront/internal/domain"
	"dreamfront/internal/logger"
)

// Store is typed, fail-soft persistence over a KVBackend. Values are JSON.
// Backend and encoding failures are logged and absorbed: reads fall back to
// the default, writes become no-ops.
type Store struct {
	backend domain.KVBackend
	log     *slog.Logger
}

// NewStore creates a store over backend.
func NewStore(backend domain.KVBackend, log *slog.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{backend: backend, log: log.With(logger.Component("store"))}
}

// Get reads key into a T. ok is false when the key is absent or unreadable.
func Get[T any](ctx context.Context, s *Store, key domain.Key) (v T, ok bool) {
	raw, found, err := s.backend.Get(ctx, string(key))
	if err != nil {
		s.log.WarnContext(ctx, "read failed", logger.Key(string(key)), logger.Error(err))
		return v, false
	}
	if !found {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.WarnContext(ctx, "decode failed", logger.Key(string(key)), logger.Error(err))
		var zero T
		return zero, false
	}
	return v, true
}

// GetOr reads key, returning def when it is absent or unreadable.
func GetOr[T any](ctx context.Context, s *Store, key domain.Key, def T) T {
	if v, ok := Get[T](ctx, s, key); ok {
		return v
	}
	return def
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key domain.Key, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.WarnContext(ctx, "encode failed", logger.Key(string(key)), logger.Error(err))
		return
	}
	if err := s.backend.Set(ctx, string(key), raw); err != nil {
		s.log.WarnContext(ctx, "write failed", logger.Key(string(key)), logger.Error(err))
	}
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key domain.Key) {
	if err := s.backend.Delete(ctx, string(key)); err != nil {
		s.log.WarnContext(ctx, "remove failed", logger.Key(string(key)), logger.Error(err))
	}
}

// Clear deletes every key in the namespace.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Clear(ctx); err != nil {
		s.log.WarnContext(ctx, "clear failed", logger.Error(err))
	}
}
