package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// principalHandler receives the caller resolved from the access token.
// On optional routes an anonymous caller arrives as the zero Principal.
type principalHandler func(w http.ResponseWriter, r *http.Request, p model.Principal)

// accessToken reads the access_token cookie, falling back to "Authorization: Bearer <JWT>".
func accessToken(r *http.Request) string {
	if c, err := r.Cookie(accessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

func (s *Server) required(h principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := accessToken(r)
		if tok == "" {
			s.writeError(w, r, errs.ErrUnauthorized)
			return
		}
		p, err := s.auth.Authenticate(r.Context(), tok)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, p)
	}
}

func (s *Server) optional(h principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.Principal
		if tok := accessToken(r); tok != "" {
			got, err := s.auth.Authenticate(r.Context(), tok)
			switch {
			case err == nil:
				p = got
			case !errors.Is(err, errs.ErrUnauthorized):
				s.writeError(w, r, err)
				return
			}
		}
		h(w, r, p)
	}
}

func (s *Server) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.opts.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) setTokenCookies(w http.ResponseWriter, t model.Tokens) {
	http.SetCookie(w, s.cookie(accessCookie, t.AccessToken, int(t.ExpiresIn)))
	http.SetCookie(w, s.cookie(refreshCookie, t.RefreshToken, int(t.RefreshTTL/time.Second)))
}

func (s *Server) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(accessCookie, "", -1))
	http.SetCookie(w, s.cookie(refreshCookie, "", -1))
}
