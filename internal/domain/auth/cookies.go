package auth

import (
	"net/http"
	"time"

	"github.com/xecbot/xecbot-api/internal/middleware"
	"github.com/xecbot/xecbot-api/internal/pkg/supabase"
)

const (
	refreshTokenCookie = "sb-refresh-token"
	codeVerifierCookie = "sb-code-verifier"

	refreshTokenMaxAge = 30 * 24 * time.Hour
	codeVerifierMaxAge = 10 * time.Minute
)

type cookieJar struct {
	secure bool
}

func (j cookieJar) set(w http.ResponseWriter, name, value, path string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j cookieJar) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j cookieJar) setSession(w http.ResponseWriter, s *supabase.Session) {
	ttl := time.Duration(s.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	j.set(w, middleware.AccessTokenCookie, s.AccessToken, "/", ttl)
	if s.RefreshToken != "" {
		j.set(w, refreshTokenCookie, s.RefreshToken, "/", refreshTokenMaxAge)
	}
}

func (j cookieJar) clearSession(w http.ResponseWriter) {
	j.clear(w, middleware.AccessTokenCookie, "/")
	j.clear(w, refreshTokenCookie, "/")
}
