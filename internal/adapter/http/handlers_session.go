package adapthttp

import (
	"net/http"

	"dreamfront/internal/app"
	"dreamfront/internal/domain"
)

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if err := parseJSON(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := s.session.UpdateUser(r.Context(), u)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReloadUser(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.ReloadUser(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.flash.Drain()})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Preferences(r.Context()))
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var p app.Preferences
	if err := parseJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.ctrl.SetPreferences(r.Context(), p)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
