// Package kvtest holds the conformance suite every domain.KVBackend must pass.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/domain"
)

// Run exercises backend semantics against fresh instances from newBackend.
func Run(t *testing.T, newBackend func(t *testing.T) domain.KVBackend) {
	t.Helper()

	t.Run("missing key is not an error", func(t *testing.T) {
		b := newBackend(t)
		v, ok, err := b.Get(context.Background(), "auth_token")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Set(ctx, "auth_token", []byte(`"t1"`)))

		v, ok, err := b.Get(ctx, "auth_token")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `"t1"`, string(v))
	})

	t.Run("set overwrites", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Set(ctx, "theme", []byte(`"light"`)))
		require.NoError(t, b.Set(ctx, "theme", []byte(`"dark"`)))

		v, ok, err := b.Get(ctx, "theme")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `"dark"`, string(v))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.Set(ctx, "user", []byte(`{"id":"1"}`)))
		require.NoError(t, b.Delete(ctx, "user"))
		require.NoError(t, b.Delete(ctx, "user"))

		_, ok, err := b.Get(ctx, "user")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		for _, k := range []string{"auth_token", "refresh_token", "user", "language"} {
			require.NoError(t, b.Set(ctx, k, []byte(`"x"`)))
		}
		require.NoError(t, b.Clear(ctx))
		require.NoError(t, b.Clear(ctx))

		for _, k := range []string{"auth_token", "refresh_token", "user", "language"} {
			_, ok, err := b.Get(ctx, k)
			require.NoError(t, err)
			assert.False(t, ok, k)
		}
	})

	t.Run("returned value is not aliased", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		in := []byte(`"abc"`)
		require.NoError(t, b.Set(ctx, "k", in))
		in[1] = 'z'

		v, _, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `"abc"`, string(v))
	})
}
