package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{
	IPRequestLimit:  3,
	IPWindow:        time.Minute,
	MaxFailedLogins: 2,
	LockoutWindow:   time.Minute,
}

func newRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, testPolicy), mr
}

// backends returns both implementations plus a function that moves their clocks forward.
func backends(t *testing.T) map[string]struct {
	limiter Limiter
	advance func(time.Duration)
} {
	redisLimiter, mr := newRedisLimiter(t)

	mem := NewMemoryLimiter(testPolicy)
	clock := time.Now()
	mem.now = func() time.Time { return clock }

	return map[string]struct {
		limiter Limiter
		advance func(time.Duration)
	}{
		"redis":  {redisLimiter, mr.FastForward},
		"memory": {mem, func(d time.Duration) { clock = clock.Add(d) }},
	}
}

func TestLimiter_IPBudget(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 0; i < testPolicy.IPRequestLimit; i++ {
				exceeded, err := b.limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
				require.NoError(t, err)
				require.False(t, exceeded, "request %d", i)
				require.NoError(t, b.limiter.RecordIPRequestWithPurpose(ctx, "10.0.0.1", "login"))
			}

			exceeded, err := b.limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
			require.NoError(t, err)
			assert.True(t, exceeded)

			exceeded, _ = b.limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "register")
			assert.False(t, exceeded, "purposes have separate budgets")
			exceeded, _ = b.limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.2", "login")
			assert.False(t, exceeded, "IPs have separate budgets")

			b.advance(testPolicy.IPWindow + time.Second)
			exceeded, _ = b.limiter.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "login")
			assert.False(t, exceeded, "budget recovers after the window")
		})
	}
}

func TestLimiter_LoginLockout(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 0; i < testPolicy.MaxFailedLogins; i++ {
				require.NoError(t, b.limiter.RecordLoginFailure(ctx, "alice"))
			}

			locked, err := b.limiter.CheckLoginFailures(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, locked)

			locked, _ = b.limiter.CheckLoginFailures(ctx, "bob")
			assert.False(t, locked)

			require.NoError(t, b.limiter.ResetLoginFailures(ctx, "alice"))
			locked, _ = b.limiter.CheckLoginFailures(ctx, "alice")
			assert.False(t, locked, "reset clears the counter")

			for i := 0; i < testPolicy.MaxFailedLogins; i++ {
				require.NoError(t, b.limiter.RecordLoginFailure(ctx, "alice"))
			}
			b.advance(testPolicy.LockoutWindow + time.Second)
			locked, _ = b.limiter.CheckLoginFailures(ctx, "alice")
			assert.False(t, locked, "lockout expires")
		})
	}
}

func TestRedisLimiter_SetsExpiryOnce(t *testing.T) {
	l, mr := newRedisLimiter(t)
	ctx := context.Background()

	require.NoError(t, l.RecordLoginFailure(ctx, "alice"))
	mr.FastForward(30 * time.Second)
	require.NoError(t, l.RecordLoginFailure(ctx, "alice"))

	ttl := mr.TTL(loginFailureKey("alice"))
	assert.Equal(t, 30*time.Second, ttl, "second failure must not extend the window")
}

func TestRedisLimiter_BackendDown(t *testing.T) {
	l, mr := newRedisLimiter(t)
	mr.Close()

	_, err := l.CheckIPRateLimitWithPurpose(context.Background(), "10.0.0.1", "login")
	assert.Error(t, err)
}
