package adapthttp

import (
	"io"
	"net/http"

	"dreamfront/internal/logger"
)

// forwardedHeaders are copied from the incoming request to the remote API.
// Authorization is never forwarded; the gateway attaches the session token.
var forwardedHeaders = []string{"Content-Type", "Accept", "Accept-Language"}

// relayedHeaders are copied from the remote response.
var relayedHeaders = []string{"Content-Type", "Content-Language", "Location", "Retry-After"}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	header := http.Header{}
	for _, k := range forwardedHeaders {
		if v := r.Header.Get(k); v != "" {
			header.Set(k, v)
		}
	}

	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}

	res, err := s.proxy.Send(r.Context(), r.Method, target, body, header)
	if res == nil {
		writeFailure(w, err)
		return
	}
	defer res.Body.Close()

	for _, k := range relayedHeaders {
		if v := res.Header.Get(k); v != "" {
			w.Header().Set(k, v)
		}
	}
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		s.log.WarnContext(r.Context(), "relay response", logger.Path(target), logger.Error(err))
	}
}
