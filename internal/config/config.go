// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBolt     = "bolt"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// API configures the outbound gateway.
type API struct {
	BaseURL     string        `env:"DREAMFRONT_API_URL" envDefault:"http://localhost:8000/api/v1"`
	Timeout     time.Duration `env:"DREAMFRONT_API_TIMEOUT" envDefault:"30s"`
	ContentType string        `env:"DREAMFRONT_CONTENT_TYPE" envDefault:"application/json"`
}

// Store configures persistence.
type Store struct {
	Backend     string `env:"DREAMFRONT_STORE" envDefault:"bolt"`
	Path        string `env:"DREAMFRONT_STORE_PATH" envDefault:"dreamfront.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Namespace   string `env:"DREAMFRONT_STORE_NAMESPACE" envDefault:"default"`
	Secret      string `env:"DREAMFRONT_STORE_SECRET"`
}

// Refresh configures proactive credential refresh.
type Refresh struct {
	Window   time.Duration `env:"DREAMFRONT_REFRESH_WINDOW" envDefault:"1m"`
	Interval time.Duration `env:"DREAMFRONT_REFRESH_INTERVAL" envDefault:"30s"`
}

// Config is the full process configuration.
type Config struct {
	API     API
	Store   Store
	Refresh Refresh

	Addr      string `env:"ADDR" envDefault:"127.0.0.1:8080"`
	WebDir    string `env:"WEB_DIR" envDefault:"web"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromMap parses configuration from vars only, ignoring the process environment.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreBolt, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("DREAMFRONT_STORE_PATH is required for the %s store", c.Store.Backend)
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store.Backend)
	}
	if strings.TrimSpace(c.Store.Namespace) == "" {
		return errors.New("DREAMFRONT_STORE_NAMESPACE must not be empty")
	}
	if c.API.BaseURL == "" {
		return errors.New("DREAMFRONT_API_URL must not be empty")
	}
	if c.API.Timeout <= 0 {
		return errors.New("DREAMFRONT_API_TIMEOUT must be positive")
	}
	if c.Refresh.Interval <= 0 {
		return errors.New("DREAMFRONT_REFRESH_INTERVAL must be positive")
	}
	return nil
}
