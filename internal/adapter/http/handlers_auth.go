package adapthttp

import (
	"net/http"

	"dreamfront/internal/domain"
	"dreamfront/internal/logger"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginInput
	if err := parseJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := s.session.Login(r.Context(), in)
	if err != nil {
		s.log.InfoContext(r.Context(), "login failed", logger.Error(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := parseJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := s.session.Signup(r.Context(), in)
	if err != nil {
		s.log.InfoContext(r.Context(), "signup failed", logger.Error(err))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.SignOut(r.Context()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Refresh(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
