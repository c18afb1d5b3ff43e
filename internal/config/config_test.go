package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, TokenStrategyJWT, cfg.Auth.TokenStrategy)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.NotEmpty(t, cfg.Auth.SecretKey, "dev falls back to a placeholder secret")
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/jpg"}, cfg.Upload.AllowedImageTypes)
	assert.Equal(t, "beauty_assistant", cfg.Database.DBName)
	assert.Equal(t, int64(1), cfg.Server.NodeID)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("ALGORITHM", "hs512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("AUTH_LOCKOUT_WINDOW", "2m")
	t.Setenv("SERVER_READ_TIMEOUT", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, 45*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Auth.LockoutWindow)
	assert.Equal(t, 7*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret in prod", map[string]string{"APP_ENV": "prod"}},
		{"unknown algorithm", map[string]string{"ALGORITHM": "RS256"}},
		{"short paseto key", map[string]string{"AUTH_TOKEN_STRATEGY": "paseto", "PASETO_KEY": "short"}},
		{"unknown strategy", map[string]string{"AUTH_TOKEN_STRATEGY": "cookie"}},
		{"s3 without bucket", map[string]string{"STORAGE_TYPE": "s3"}},
		{"zero token lifetime", map[string]string{"ACCESS_TOKEN_EXPIRE_MINUTES": "0"}},
		{"node id out of range", map[string]string{"NODE_ID": "2048"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "dev")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.ConnectionString())
}
