package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamfront/internal/domain"
	"dreamfront/internal/logger"
)

func TestNewText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := logger.New(&buf, "warn", "text")
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := logger.New(&buf, "debug", "json")
	require.NoError(t, err)

	log.Debug("hello", logger.Status(401))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.EqualValues(t, 401, line["status"])
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()
	_, err := logger.New(&bytes.Buffer{}, "loud", "text")
	require.Error(t, err)

	_, err = logger.New(&bytes.Buffer{}, "info", "yaml")
	require.Error(t, err)
}

func TestError(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestEmptyAttrs(t *testing.T) {
	t.Parallel()
	assert.True(t, logger.Key("").Equal(slog.Attr{}))
	assert.True(t, logger.Status(0).Equal(slog.Attr{}))
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
}

func TestState(t *testing.T) {
	t.Parallel()
	attr := logger.State(domain.StateAuthenticated)
	assert.Equal(t, "state", attr.Key)
	assert.Equal(t, "authenticated", attr.Value.String())
}
