package adapthttp

import (
	"net/http"
	"path"
	"strings"
	"time"

	"dreamfront/internal/guard"
	"dreamfront/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.InfoContext(r.Context(), "request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(rec.status),
			logger.Duration(time.Since(start)),
		)
	})
}

// pageCapabilities maps the first path segment of a page to its requirement.
// Anything not listed is public.
var pageCapabilities = map[string]guard.Capability{
	"login":     guard.RequiresAnon,
	"signup":    guard.RequiresAnon,
	"journal":   guard.RequiresAuth,
	"dreams":    guard.RequiresAuth,
	"profile":   guard.RequiresAuth,
	"social":    guard.RequiresAuth,
	"istikhara": guard.RequiresAuth,
}

func capabilityFor(p string) guard.Capability {
	p = strings.TrimPrefix(path.Clean(p), "/")
	first, _, _ := strings.Cut(p, "/")
	first = strings.TrimSuffix(first, ".html")
	return pageCapabilities[first]
}

const loadingPage = `<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body><p>Loading&hellip;</p></body></html>
`

// isPage reports whether p names a page rather than an asset.
func isPage(p string) bool {
	ext := path.Ext(p)
	return ext == "" || ext == ".html"
}

// guardPages consumes a pending navigation and then gates the page on the
// session state. Assets pass through untouched.
func (s *Server) guardPages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method != http.MethodGet && r.Method != http.MethodHead) || !isPage(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if target, ok := s.nav.Take(); ok && target != path.Clean(r.URL.Path) {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		out := guard.Evaluate(s.session.Snapshot().State, capabilityFor(r.URL.Path))
		switch out.Action {
		case guard.Loading:
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(loadingPage))
		case guard.Redirect:
			http.Redirect(w, r, out.Target, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
