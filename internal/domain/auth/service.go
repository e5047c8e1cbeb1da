package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/pkg/jwt"
	"github.com/xecbot/xecbot-api/internal/pkg/supabase"
)

// Provider is the identity provider the service delegates to.
type Provider interface {
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

const (
	sessionCacheSize = 1024
	sessionCacheTTL  = 30 * time.Second
)

// Service resolves and manages provider sessions.
type Service struct {
	provider Provider
	verifier *jwt.Service
	cache    *expirable.LRU[string, string]
}

// NewService creates the auth service. When verifier is non-nil access
// tokens are checked locally; otherwise every unknown token costs one
// provider round trip and the answer is cached briefly.
func NewService(provider Provider, verifier *jwt.Service) *Service {
	return &Service{
		provider: provider,
		verifier: verifier,
		cache:    expirable.NewLRU[string, string](sessionCacheSize, nil, sessionCacheTTL),
	}
}

// ResolveSession returns the user id behind accessToken.
func (s *Service) ResolveSession(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrInvalidSession
	}

	if s.verifier != nil {
		claims, err := s.verifier.ValidateAccessToken(accessToken)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
		}
		return claims.Subject, nil
	}

	key := tokenKey(accessToken)
	if userID, ok := s.cache.Get(key); ok {
		return userID, nil
	}

	user, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		if supabase.IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
		}
		log.Ctx(ctx).Error().Err(err).Msg("session lookup failed")
		return "", fmt.Errorf("resolve session: %w", err)
	}
	if user.ID == "" {
		return "", ErrInvalidSession
	}

	s.cache.Add(key, user.ID)
	return user.ID, nil
}

// StartLogin returns the provider authorize URL and the PKCE verifier the
// caller must keep for the callback.
func (s *Service) StartLogin(oauthProvider, redirectTo string) (authorizeURL, verifier string, err error) {
	verifier, challenge, err := supabase.NewPKCE()
	if err != nil {
		return "", "", fmt.Errorf("generate pkce: %w", err)
	}
	return s.provider.AuthorizeURL(oauthProvider, redirectTo, challenge), verifier, nil
}

// Exchange completes the OAuth flow.
func (s *Service) Exchange(ctx context.Context, code, verifier string) (*supabase.Session, error) {
	if verifier == "" {
		return nil, ErrMissingVerifier
	}
	return s.provider.ExchangeCodeForSession(ctx, code, verifier)
}

// Refresh renews a session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}
	session, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		if supabase.IsStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
		}
		return nil, err
	}
	return session, nil
}

// Logout revokes the session at the provider and forgets the cached answer.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	s.cache.Remove(tokenKey(accessToken))
	return s.provider.SignOut(ctx, accessToken)
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsInvalidSession reports whether err means the caller is not signed in.
func IsInvalidSession(err error) bool {
	return errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrRefreshTokenRequired)
}
