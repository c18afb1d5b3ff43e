package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService issues HMAC-signed JWTs (HS256, HS384 or HS512).
type JWTService struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewJWTService(secret, algorithm string) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	return &JWTService{secret: []byte(secret), method: method, now: time.Now}, nil
}

func (s *JWTService) CreateToken(subject TokenSubject, duration time.Duration) (string, *TokenClaims, error) {
	claims := newClaims(subject, s.now(), duration)

	token := jwt.NewWithClaims(s.method, jwtClaims{
		Username: claims.Username,
		Email:    claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			Subject:   strconv.FormatInt(claims.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

// VerifyToken checks signature, algorithm and expiry.
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(tokenStr, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || parsed.ID == "" || parsed.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		ID:        parsed.ID,
		UserID:    userID,
		Username:  parsed.Username,
		Email:     parsed.Email,
		IssuedAt:  parsed.IssuedAt.Time,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
