package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers tokens that must be refused before they expire.
type RevocationStore interface {
	// Revoke denylists one token until expiresAt.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// RevokeAllForUser rejects every token of userID issued before the given time.
	// The marker is kept for ttl, which should be at least the access token lifetime.
	RevokeAllForUser(ctx context.Context, userID int64, before time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, claims *TokenClaims) (bool, error)
}

// getRevokedKey generates the Redis key for a revoked token marker
func getRevokedKey(jti string) string {
	return fmt.Sprintf("access_token:revoked:%s", jti)
}

// getUserRevokedBeforeKey generates the Redis key holding a user's revocation cutoff
func getUserRevokedBeforeKey(userID int64) string {
	return fmt.Sprintf("user_tokens:revoked_before:%d", userID)
}

// RedisRevocationStore keeps revocation markers in Redis with TTLs matching token expiry.
type RedisRevocationStore struct {
	client redis.Cmdable
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (r *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing left to refuse.
		return nil
	}

	if err := r.client.Set(ctx, getRevokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

func (r *RedisRevocationStore) RevokeAllForUser(ctx context.Context, userID int64, before time.Time, ttl time.Duration) error {
	err := r.client.Set(ctx, getUserRevokedBeforeKey(userID), before.Unix(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

func (r *RedisRevocationStore) IsRevoked(ctx context.Context, claims *TokenClaims) (bool, error) {
	pipe := r.client.Pipeline()
	revoked := pipe.Exists(ctx, getRevokedKey(claims.ID))
	cutoff := pipe.Get(ctx, getUserRevokedBeforeKey(claims.UserID))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}

	if revoked.Val() > 0 {
		return true, nil
	}

	if raw, err := cutoff.Result(); err == nil {
		before, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false, fmt.Errorf("corrupt revocation cutoff for user %d: %w", claims.UserID, err)
		}
		return claims.IssuedAt.Unix() < before, nil
	}

	return false, nil
}

// MemoryRevocationStore is the single-process fallback used when Redis is unavailable.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	tokens  map[string]time.Time
	cutoffs map[int64]memoryCutoff
	now     func() time.Time
}

type memoryCutoff struct {
	before    time.Time
	expiresAt time.Time
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[int64]memoryCutoff),
		now:     time.Now,
	}
}

func (m *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.tokens {
		if !now.Before(exp) {
			delete(m.tokens, id)
		}
	}
	if now.Before(expiresAt) {
		m.tokens[jti] = expiresAt
	}
	return nil
}

func (m *MemoryRevocationStore) RevokeAllForUser(_ context.Context, userID int64, before time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs[userID] = memoryCutoff{before: before.Truncate(time.Second), expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryRevocationStore) IsRevoked(_ context.Context, claims *TokenClaims) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.tokens[claims.ID]; ok && now.Before(exp) {
		return true, nil
	}
	if c, ok := m.cutoffs[claims.UserID]; ok && now.Before(c.expiresAt) {
		return claims.IssuedAt.Before(c.before), nil
	}
	return false, nil
}
