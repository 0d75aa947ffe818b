package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/adapter/kvtest"
	"dreamfront/internal/domain"
)

func openTestStore(t *testing.T, path, namespace string) *Store {
	t.Helper()
	s, err := Open(path, namespace)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBackend(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) domain.KVBackend {
		return openTestStore(t, filepath.Join(t.TempDir(), "kv.db"), "default")
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", "default")
	require.Error(t, err)
}

func TestNamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	a := openTestStore(t, path, "a")
	b := openTestStore(t, path, "b")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "auth_token", []byte(`"ta"`)))
	require.NoError(t, b.Set(ctx, "auth_token", []byte(`"tb"`)))
	require.NoError(t, a.Clear(ctx))

	_, ok, err := a.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := b.Get(ctx, "auth_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"tb"`, string(v))
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := Open(path, "default")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user", []byte(`{"id":"1"}`)))
	require.NoError(t, s.Close())

	s2 := openTestStore(t, path, "default")
	v, ok, err := s2.Get(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, string(v))
}
