package jwt

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func TestValidateAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Minute)
	token, err := svc.GenerateAccessToken("user-1", "u@example.com")
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "u@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	svc := NewService("secret", -time.Minute)
	token, err := svc.GenerateAccessToken("user-1", "")
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	token, _ := NewService("other", time.Minute).GenerateAccessToken("user-1", "")

	if _, err := NewService("secret", time.Minute).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateAccessTokenRejectsAnonAudience(t *testing.T) {
	claims := gojwt.RegisteredClaims{
		Subject:   "user-1",
		Audience:  gojwt.ClaimStrings{"anon"},
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewService("secret", time.Minute).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateAccessTokenRequiresSubject(t *testing.T) {
	token, _ := NewService("secret", time.Minute).GenerateAccessToken("", "")

	if _, err := NewService("secret", time.Minute).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
