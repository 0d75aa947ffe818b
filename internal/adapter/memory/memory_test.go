package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/adapter/kvtest"
	"dreamfront/internal/domain"
)

func TestBackend(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) domain.KVBackend { return New() })
}

func TestKeys(t *testing.T) {
	db := New()
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, "user", []byte("{}")))
	require.NoError(t, db.Set(ctx, "auth_token", []byte(`"t"`)))

	assert.Equal(t, []string{"auth_token", "user"}, db.Keys())
}
