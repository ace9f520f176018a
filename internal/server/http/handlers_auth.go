package httpserver

import (
	"net/http"

	"github.com/and161185/quill/internal/convert"
	"github.com/and161185/quill/internal/model"
)

// register creates an account and opens its first session.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req convert.RegisterRequest
	if err := s.decode(w, r, &req); err != nil {
		s.metrics.authEvent("register", err)
		s.writeError(w, r, err)
		return
	}
	tok, err := s.auth.Register(r.Context(), req.Username, req.Password)
	s.metrics.authEvent("register", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setTokenCookies(w, tok)
	writeJSON(w, http.StatusCreated, convert.ToTokens(tok))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req convert.LoginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.metrics.authEvent("login", err)
		s.writeError(w, r, err)
		return
	}
	tok, err := s.auth.Login(r.Context(), req.Username, req.Password, clientIP(r.RemoteAddr))
	s.metrics.authEvent("login", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setTokenCookies(w, tok)
	writeJSON(w, http.StatusOK, convert.ToTokens(tok))
}

// refresh rotates the session. The refresh_token cookie takes precedence over the body.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req convert.RefreshRequest
	if err := s.decodeOptional(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rt := req.RefreshToken
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		rt = c.Value
	}
	tok, err := s.auth.Refresh(r.Context(), rt)
	s.metrics.authEvent("refresh", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setTokenCookies(w, tok)
	writeJSON(w, http.StatusOK, convert.ToTokens(tok))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, p model.Principal) {
	err := s.auth.Logout(r.Context(), p)
	s.metrics.authEvent("logout", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, convert.Success{Success: true})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request, p model.Principal) {
	prof, err := s.auth.Profile(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToProfile(prof))
}
