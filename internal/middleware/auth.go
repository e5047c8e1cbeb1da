package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/pkg/response"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	RequestIDKey contextKey = "request_id"
)

// AccessTokenCookie carries the provider access token for browser clients.
const AccessTokenCookie = "sb-access-token"

// SessionResolver turns an access token into the id of the signed-in user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, accessToken string) (string, error)
}

// Auth returns middleware that rejects requests without a valid session.
// The token is read from the Authorization header first, then the cookie.
func Auth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				response.Unauthorized(w, "Authentication required")
				return
			}

			userID, err := sessions.ResolveSession(r.Context(), token)
			if err != nil || userID == "" {
				log.Ctx(r.Context()).Debug().Err(err).Msg("session rejected")
				response.Unauthorized(w, "Authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// AccessToken extracts the bearer token or the session cookie.
func AccessToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithUserID stores the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
