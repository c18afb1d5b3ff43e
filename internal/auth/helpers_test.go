package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/ratelimit"
	"github.com/redmonkez12/beauty-assistant-api/internal/user/usertest"
)

// cheapParams keeps argon2 fast enough for tests that hash in loops.
var cheapParams = Argon2Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 16, SaltLen: 8}

const testSecret = "test-secret"

type recordingMailer struct {
	mu      sync.Mutex
	welcome []string
	changed []string
}

func (m *recordingMailer) SendWelcomeEmail(_ context.Context, to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, to)
	return nil
}

func (m *recordingMailer) SendPasswordChangedEmail(_ context.Context, to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, to)
	return nil
}

func (m *recordingMailer) welcomed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.welcome...)
}

type fixture struct {
	svc     *Service
	store   *usertest.Memory
	hasher  *PasswordHasher
	tokens  *JWTService
	revoked *MemoryRevocationStore
	limiter *ratelimit.MemoryLimiter
	mailer  *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := NewJWTService(testSecret, "HS256")
	require.NoError(t, err)

	f := &fixture{
		store:   usertest.NewMemory(),
		hasher:  NewPasswordHasher(cheapParams),
		tokens:  tokens,
		revoked: NewMemoryRevocationStore(),
		limiter: ratelimit.NewMemoryLimiter(ratelimit.Policy{
			IPRequestLimit:  1000,
			IPWindow:        time.Minute,
			MaxFailedLogins: 3,
			LockoutWindow:   15 * time.Minute,
		}),
		mailer: &recordingMailer{},
	}
	f.svc = NewService(f.store, f.hasher, f.tokens, f.revoked, f.limiter, f.mailer, logging.Nop(), 30*time.Minute)
	return f
}

func (f *fixture) register(t *testing.T, email, username, password string) {
	t.Helper()
	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:           email,
		Username:        username,
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
}
