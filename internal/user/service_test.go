package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/beauty-assistant-api/internal/user"
	"github.com/redmonkez12/beauty-assistant-api/internal/user/usertest"
)

func seed(t *testing.T, store *usertest.Memory, email, username string) *user.User {
	t.Helper()
	u, err := store.Insert(context.Background(), user.NewUser{Email: email, Username: username, PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func TestService_UpdateProfile(t *testing.T) {
	store := usertest.NewMemory()
	svc := user.NewService(store)
	alice := seed(t, store, "a@example.com", "alice")
	seed(t, store, "b@example.com", "bob")

	name := "Alice Liddell"
	got, err := svc.UpdateProfile(context.Background(), alice.ID, user.ProfileUpdate{FullName: &name})
	require.NoError(t, err)
	require.NotNil(t, got.FullName)
	assert.Equal(t, name, *got.FullName)
	assert.False(t, got.UpdatedAt.Before(alice.UpdatedAt))

	taken := " bob "
	_, err = svc.UpdateProfile(context.Background(), alice.ID, user.ProfileUpdate{Username: &taken})
	assert.ErrorIs(t, err, user.ErrAlreadyExists)

	same := "alice"
	_, err = svc.UpdateProfile(context.Background(), alice.ID, user.ProfileUpdate{Username: &same})
	assert.NoError(t, err, "keeping the current username is not a conflict")
}

func TestService_UpdateProfile_UsernameLengthAfterTrim(t *testing.T) {
	store := usertest.NewMemory()
	svc := user.NewService(store)
	alice := seed(t, store, "a@example.com", "alice")

	for _, username := range []string{"    ", " ab ", ""} {
		_, err := svc.UpdateProfile(context.Background(), alice.ID, user.ProfileUpdate{Username: &username})
		assert.ErrorIs(t, err, user.ErrInvalidUsername, "username %q", username)
	}

	stored, err := store.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)

	padded := "  alicia  "
	got, err := svc.UpdateProfile(context.Background(), alice.ID, user.ProfileUpdate{Username: &padded})
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alice", "alice", false},
		{"  abc ", "abc", false},
		{" ab ", "", true},
		{"   ", "", true},
		{"ééé", "ééé", false},
		{strings.Repeat("a", 51), "", true},
	}

	for _, tt := range tests {
		got, err := user.NormalizeUsername(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, user.ErrInvalidUsername, "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestService_UpdateProfile_Empty(t *testing.T) {
	store := usertest.NewMemory()
	svc := user.NewService(store)
	alice := seed(t, store, "a@example.com", "alice")

	got, err := svc.UpdateProfile(context.Background(), alice.ID, user.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, alice.UpdatedAt, got.UpdatedAt)
}

func identityOf(id int64) user.IdentityFunc {
	return func(context.Context) (int64, bool) { return id, id != 0 }
}

func TestHandler_Me(t *testing.T) {
	store := usertest.NewMemory()
	alice := seed(t, store, "a@example.com", "alice")

	tests := []struct {
		name   string
		id     int64
		status int
	}{
		{"authenticated", alice.ID, http.StatusOK},
		{"no identity", 0, http.StatusUnauthorized},
		{"deleted user", 404, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := user.NewHandler(user.NewService(store), identityOf(tt.id))
			rec := httptest.NewRecorder()
			h.Me(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "alice", body["username"])
				assert.NotContains(t, body, "password_hash")
				assert.NotContains(t, rec.Body.String(), "hash")
			}
		})
	}
}

func TestHandler_UpdateMe(t *testing.T) {
	store := usertest.NewMemory()
	alice := seed(t, store, "a@example.com", "alice")
	seed(t, store, "b@example.com", "bob")
	h := user.NewHandler(user.NewService(store), identityOf(alice.ID))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"rename", `{"username":"alicia"}`, http.StatusOK},
		{"too short", `{"username":"al"}`, http.StatusBadRequest},
		{"blank", `{"username":"   "}`, http.StatusBadRequest},
		{"short once trimmed", `{"username":" ab "}`, http.StatusBadRequest},
		{"taken", `{"username":"bob"}`, http.StatusBadRequest},
		{"unknown field", `{"email":"x@example.com"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewBufferString(tt.body))
			h.UpdateMe(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	stored, err := store.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", stored.Username, "rejected updates leave the rename in place")
}
