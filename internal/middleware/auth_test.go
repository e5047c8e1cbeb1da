package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubResolver struct {
	userID string
	err    error
	got    string
}

func (s *stubResolver) ResolveSession(_ context.Context, token string) (string, error) {
	s.got = token
	return s.userID, s.err
}

func TestAuthMiddlewareAllowsValidBearerToken(t *testing.T) {
	resolver := &stubResolver{userID: "user-1"}
	var seen string
	protected := Auth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resolver.got != "token-1" || seen != "user-1" {
		t.Fatalf("unexpected token %q or user %q", resolver.got, seen)
	}
}

func TestAuthMiddlewareReadsCookie(t *testing.T) {
	resolver := &stubResolver{userID: "user-1"}
	protected := Auth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK || resolver.got != "cookie-token" {
		t.Fatalf("expected cookie token to be used, got %d %q", w.Code, resolver.got)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	called := false
	protected := Auth(&stubResolver{userID: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 without calling next, got %d called=%v", w.Code, called)
	}
}

func TestAuthMiddlewareRejectsResolverError(t *testing.T) {
	protected := Auth(&stubResolver{err: errors.New("bad token")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	protected := Auth(&stubResolver{userID: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
