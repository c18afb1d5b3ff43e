package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/beauty-assistant-api/internal/analysis"
	"github.com/redmonkez12/beauty-assistant-api/internal/auth"
	"github.com/redmonkez12/beauty-assistant-api/internal/config"
	"github.com/redmonkez12/beauty-assistant-api/internal/email"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/ratelimit"
	"github.com/redmonkez12/beauty-assistant-api/internal/recommendation"
	"github.com/redmonkez12/beauty-assistant-api/internal/storage"
	"github.com/redmonkez12/beauty-assistant-api/internal/user"
	"github.com/redmonkez12/beauty-assistant-api/internal/user/usertest"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func testConfig(env string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: env, Version: "1.2.3"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://app.example"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}
}

func newTestRouter(t *testing.T, env string, pingErr error) http.Handler {
	t.Helper()

	store := usertest.NewMemory()
	tokens, err := auth.NewJWTService("router-secret", "HS256")
	require.NoError(t, err)
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Policy{
		IPRequestLimit: 100, IPWindow: time.Minute, MaxFailedLogins: 5, LockoutWindow: time.Minute,
	})
	hasher := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 16, SaltLen: 8})
	authService := auth.NewService(store, hasher, tokens, auth.NewMemoryRevocationStore(), limiter, email.Noop{}, logging.Nop(), 30*time.Minute)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return NewRouter(testConfig(env), Handlers{
		Auth:            auth.NewHandler(authService, limiter),
		AuthMiddleware:  auth.NewMiddleware(authService),
		Users:           user.NewHandler(user.NewService(store), auth.GetUserIDFromContext),
		Analysis:        analysis.NewHandler(analysis.NewService(files), 1<<20, []string{"image/png", "image/jpeg"}),
		Recommendations: recommendation.NewHandler(),
		Health:          NewHealthHandler(fakePinger{err: pingErr}, "1.2.3", time.Second),
	}, logging.Nop())
}

func serve(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	router := newTestRouter(t, "prod", nil)

	rec := serve(router, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Beauty Assistant API is running","version":"1.2.3","status":"healthy"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    string
	}{
		{"database up", nil, `{"status":"healthy","database":"connected","version":"1.2.3"}`},
		{"database down", errors.New("connection refused"), `{"status":"degraded","database":"unreachable","version":"1.2.3"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestRouter(t, "prod", tt.pingErr), http.MethodGet, "/health", "", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestStubEndpoints(t *testing.T) {
	router := newTestRouter(t, "prod", nil)

	rec := serve(router, http.MethodPost, "/analysis/face", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"face_shape":"oval"`)

	rec = serve(router, http.MethodGet, "/recommendations", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recommendations":[]`)
}

func TestIdentityFlow(t *testing.T) {
	router := newTestRouter(t, "prod", nil)

	rec := serve(router, http.MethodPost, "/auth/register",
		`{"email":"a@example.com","username":"alice","password":"longenough1","confirm_password":"longenough1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodPost, "/auth/login", `{"identifier":"alice","password":"longenough1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = serve(router, http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/users/me", "", login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = serve(router, http.MethodPatch, "/users/me", `{"full_name":"Alice Liddell"}`, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"full_name":"Alice Liddell"`)

	rec = serve(router, http.MethodPost, "/auth/logout", "", login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/users/me", "", login.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSwaggerOnlyInDevelopment(t *testing.T) {
	rec := serve(newTestRouter(t, "prod", nil), http.MethodGet, "/swagger/index.html", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(newTestRouter(t, "dev", nil), http.MethodGet, "/swagger/index.html", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, "prod", nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
