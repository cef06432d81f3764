package api

import (
	"errors"
	"net/http"

	"github.com/benchdeck/benchdeck/pkg/auth"
)

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() { s.createSession(w, r) }).
		NotAllowed()
}

// createSession exchanges the operator password for a bearer token. With
// auth disabled there is nothing to log into.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	if !s.authService.Enabled() {
		s.respondError(w, http.StatusServiceUnavailable, "Authentication not enabled")
		return
	}

	var req SessionRequest
	if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}

	session, err := s.authService.Login(req.Password)
	if errors.Is(err, auth.ErrBadPassword) {
		s.respondError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not create session")
		return
	}
	s.respondJSON(w, http.StatusOK, session)
}
