package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "application/json", cfg.API.ContentType)
	assert.Equal(t, StoreBolt, cfg.Store.Backend)
	assert.Equal(t, "dreamfront.db", cfg.Store.Path)
	assert.Equal(t, "default", cfg.Store.Namespace)
	assert.Empty(t, cfg.Store.Secret)
	assert.Equal(t, time.Minute, cfg.Refresh.Window)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "web", cfg.WebDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"DREAMFRONT_API_URL":      "https://api.example.com/v1",
		"DREAMFRONT_API_TIMEOUT":  "5s",
		"DREAMFRONT_STORE":        "redis",
		"REDIS_URL":               "redis://cache:6379/2",
		"DREAMFRONT_STORE_SECRET": "s3cret",
		"LOG_FORMAT":              "json",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/2", cfg.Store.RedisURL)
	assert.Equal(t, "s3cret", cfg.Store.Secret)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseError(t *testing.T) {
	_, err := FromMap(map[string]string{"DREAMFRONT_API_TIMEOUT": "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"unknown store", map[string]string{"DREAMFRONT_STORE": "etcd"}},
		{"postgres without dsn", map[string]string{"DREAMFRONT_STORE": "postgres"}},
		{"empty namespace", map[string]string{"DREAMFRONT_STORE": "memory", "DREAMFRONT_STORE_NAMESPACE": "  "}},
		{"zero timeout", map[string]string{"DREAMFRONT_API_TIMEOUT": "0s"}},
		{"zero interval", map[string]string{"DREAMFRONT_REFRESH_INTERVAL": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.vars)
			require.Error(t, err)
		})
	}

	_, err := FromMap(map[string]string{"DREAMFRONT_STORE": "postgres", "DATABASE_URL": "postgres://x"})
	require.NoError(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WEB_DIR=public\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("WEB_DIR", "")
	os.Unsetenv("WEB_DIR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.WebDir)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
}
