package sealed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/adapter/kvtest"
	"dreamfront/internal/adapter/memory"
	"dreamfront/internal/domain"
)

func TestBackend(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) domain.KVBackend {
		b, err := Wrap(memory.New(), []byte("secret"))
		require.NoError(t, err)
		return b
	})
}

func TestWrapRequiresSecret(t *testing.T) {
	_, err := Wrap(memory.New(), nil)
	require.Error(t, err)
}

func TestValuesAreNotStoredInPlaintext(t *testing.T) {
	inner := memory.New()
	b, err := Wrap(inner, []byte("secret"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "auth_token", []byte(`"t1"`)))

	raw, ok, err := inner.Get(ctx, "auth_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "t1")
	assert.Equal(t, version, raw[0])
}

func TestWrongSecretIsCorrupt(t *testing.T) {
	inner := memory.New()
	ctx := context.Background()

	a, err := Wrap(inner, []byte("one"))
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "auth_token", []byte(`"t1"`)))

	b, err := Wrap(inner, []byte("two"))
	require.NoError(t, err)
	_, ok, err := b.Get(ctx, "auth_token")
	require.ErrorIs(t, err, ErrCorrupt)
	assert.False(t, ok)
}

func TestValueBoundToKey(t *testing.T) {
	inner := memory.New()
	b, err := Wrap(inner, []byte("secret"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "auth_token", []byte(`"t1"`)))
	raw, _, err := inner.Get(ctx, "auth_token")
	require.NoError(t, err)
	require.NoError(t, inner.Set(ctx, "refresh_token", raw))

	_, _, err = b.Get(ctx, "refresh_token")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestTruncatedValueIsCorrupt(t *testing.T) {
	inner := memory.New()
	b, err := Wrap(inner, []byte("secret"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, inner.Set(ctx, "user", []byte{version, 1, 2}))
	_, _, err = b.Get(ctx, "user")
	require.ErrorIs(t, err, ErrCorrupt)
}
