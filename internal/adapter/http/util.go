package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"

	"dreamfront/internal/app"
	"dreamfront/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeFailure maps a session or gateway error onto a status and writes it
// together with its kind.
func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := map[string]any{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	}
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Detail != "" {
		body["detail"] = derr.Detail
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	switch {
	case app.IsSuperseded(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoCredential):
		return http.StatusUnauthorized
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNetwork:
		return http.StatusBadGateway
	case domain.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// spaFromDisk serves dir. A page route with a matching <route>.html is
// served from that file; unknown paths fall back to index.html.
func spaFromDisk(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := path.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)
		if reqPath == "/" {
			http.ServeFile(w, r, indexPath)
			return
		}

		pagePath := path.Join(dir, reqPath+".html")
		if fi, err := os.Stat(pagePath); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, pagePath)
			return
		}

		staticPath := path.Join(dir, reqPath)
		if _, err := os.Stat(staticPath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, indexPath)
	})
}
