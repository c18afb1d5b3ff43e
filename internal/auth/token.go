package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// TokenClaims is what a verified access token asserts.
type TokenClaims struct {
	ID        string    `json:"jti"`
	UserID    int64     `json:"sub"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenSubject identifies who a token is issued to.
type TokenSubject struct {
	UserID   int64
	Username string
	Email    string
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HMAC) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(subject TokenSubject, duration time.Duration) (string, *TokenClaims, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

func newClaims(subject TokenSubject, now time.Time, duration time.Duration) *TokenClaims {
	// Token timestamps travel as whole seconds.
	now = now.Truncate(time.Second)
	return &TokenClaims{
		ID:        uuid.NewString(),
		UserID:    subject.UserID,
		Username:  subject.Username,
		Email:     subject.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(duration),
	}
}
