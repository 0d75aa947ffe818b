package adapthttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"dreamfront/internal/app"
	"dreamfront/internal/logger"
)

// Sender forwards raw requests to the remote API.
type Sender interface {
	Send(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error)
}

// Server is the driving HTTP adapter that exposes the session and relays
// API traffic for the page bundle.
type Server struct {
	session *app.SessionService
	ctrl    *app.Controller
	proxy   Sender
	flash   *Flash
	nav     *PendingNavigator
	webDir  string
	log     *slog.Logger
}

// New creates a Server wired to the given application services.
func New(session *app.SessionService, ctrl *app.Controller, proxy Sender, flash *Flash, nav *PendingNavigator, webDir string) *Server {
	return &Server{
		session: session,
		ctrl:    ctrl,
		proxy:   proxy,
		flash:   flash,
		nav:     nav,
		webDir:  webDir,
		log:     logger.Discard(),
	}
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.log = l.With(logger.Component("http"))
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("GET /session", s.handleSession)
	api.HandleFunc("PUT /session/user", s.handleUpdateUser)
	api.HandleFunc("POST /session/reload", s.handleReloadUser)

	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/signup", s.handleSignup)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.HandleFunc("POST /auth/refresh", s.handleRefresh)

	api.HandleFunc("GET /notifications", s.handleNotifications)
	api.HandleFunc("GET /preferences", s.handlePreferences)
	api.HandleFunc("PUT /preferences", s.handleSetPreferences)

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", http.HandlerFunc(s.handleProxy)))
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", s.guardPages(spaFromDisk(s.webDir)))

	return s.loggingMiddleware(withNoCache(root))
}
