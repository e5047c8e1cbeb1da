package auth

// SessionResponse is returned by GET /api/session.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

// RefreshRequest is the optional body of POST /auth/refresh. The cookie is
// used when the body is empty.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse describes the renewed session. Tokens travel in cookies.
type RefreshResponse struct {
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}
