package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/beauty-assistant-api/internal/httputil"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey ContextKey = "user_id"
	ClaimsContextKey ContextKey = "token_claims"
)

// Authenticator verifies a bearer token; *Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*TokenClaims, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	authenticator Authenticator
}

func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// RequireAuth is a middleware that validates the access token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, r, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httputil.RespondErrorWithCode(w, r, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrExpiredToken):
				httputil.RespondErrorWithCode(w, r, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
			case errors.Is(err, ErrRevokedToken):
				httputil.RespondErrorWithCode(w, r, "token has been revoked", httputil.CodeTokenRevoked, http.StatusUnauthorized)
			case errors.Is(err, ErrInvalidToken):
				httputil.RespondErrorWithCode(w, r, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			default:
				logging.GetLoggerFromContext(r.Context()).Error("token authentication failed", "error", err.Error())
				httputil.RespondErrorWithCode(w, r, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, claims.UserID)
		ctx = context.WithValue(ctx, ClaimsContextKey, claims)
		ctx = logging.WithLogger(ctx, logging.GetLoggerFromContext(ctx).With("user_id", claims.UserID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}

// GetClaimsFromContext extracts the verified token claims from the request context
func GetClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*TokenClaims)
	return claims, ok
}
