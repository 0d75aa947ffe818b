package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/adapter/kvtest"
	"dreamfront/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestBackend(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) domain.KVBackend {
		_, rdb := newTestClient(t)
		return NewStore(rdb, "default")
	})
}

func TestStoresUnderNamespaceHash(t *testing.T) {
	mr, rdb := newTestClient(t)
	s := NewStore(rdb, "kiosk")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "auth_token", []byte(`"t1"`)))
	assert.Equal(t, `"t1"`, mr.HGet("dreamfront:kiosk", "auth_token"))

	other := NewStore(rdb, "other")
	_, ok, err := other.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	mr, _ := newTestClient(t)
	ctx := context.Background()

	s, err := Open(ctx, "redis://"+mr.Addr()+"/0", "default")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	_, err = Open(ctx, "not a url", "default")
	require.Error(t, err)
}

func TestOpenUnavailable(t *testing.T) {
	mr, _ := newTestClient(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), "redis://"+addr+"/0", "default")
	require.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestGetSurfacesServerErrors(t *testing.T) {
	mr, rdb := newTestClient(t)
	s := NewStore(rdb, "default")
	mr.SetError("boom")

	_, _, err := s.Get(context.Background(), "k")
	require.Error(t, err)
}
