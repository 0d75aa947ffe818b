// Package logger builds the process slog.Logger and provides attribute helpers.
//
// Attribute helpers return an empty slog.Attr for zero inputs, so calls like
// log.Info("msg", logger.Error(err)) need no nil checks.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// New builds a logger writing to w. level is one of debug, info, warn, error;
// format is text or json.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags log lines with the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Key creates an attribute for a persisted key name.
func Key(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	return slog.String("key", key)
}

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// Status creates an attribute for HTTP status codes.
func Status(code int) slog.Attr {
	if code == 0 {
		return slog.Attr{}
	}
	return slog.Int("status", code)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// State creates an attribute for a session state.
func State(s fmt.Stringer) slog.Attr {
	return slog.String("state", s.String())
}

// UserID creates an attribute for a user identifier.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}
