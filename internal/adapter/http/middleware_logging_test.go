package adapthttp

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{log: slog.New(slog.NewTextHandler(&buf, nil))}
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	})

	handler := s.loggingMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	logOutput := buf.String()
	for _, want := range []string{"method=GET", "path=/test-path", "status=418"} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("Log output missing %q. Got: %s", want, logOutput)
		}
	}
}

func TestLoggingMiddlewareDefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{log: slog.New(slog.NewTextHandler(&buf, nil))}
	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("implicit"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("expected status=200 in log, got: %s", buf.String())
	}
}

func TestCapabilityFor(t *testing.T) {
	tests := map[string]string{
		"/":              "public",
		"/login":         "requires_anon",
		"/signup/":       "requires_anon",
		"/journal":       "requires_auth",
		"/journal.html":  "requires_auth",
		"/dreams/12":     "requires_auth",
		"/istikhara":     "requires_auth",
		"/azkar":         "public",
		"/sleep":         "public",
		"/assets/app.js": "public",
	}
	for p, want := range tests {
		if got := capabilityFor(p).String(); got != want {
			t.Errorf("capabilityFor(%q) = %s, want %s", p, got, want)
		}
	}
}

func TestIsPage(t *testing.T) {
	for p, want := range map[string]bool{
		"/":              true,
		"/journal":       true,
		"/login.html":    true,
		"/app.js":        false,
		"/img/moon.webp": false,
	} {
		if got := isPage(p); got != want {
			t.Errorf("isPage(%q) = %v, want %v", p, got, want)
		}
	}
}
