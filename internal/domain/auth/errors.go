package auth

import "errors"

var (
	ErrInvalidSession       = errors.New("invalid or expired session")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrMissingVerifier      = errors.New("pkce verifier cookie is missing")
)
