package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps fixed-window counters in Redis so limits hold across replicas.
type RedisLimiter struct {
	client redis.Cmdable
	policy Policy
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.Cmdable, policy Policy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy}
}

func (l *RedisLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return l.exceeded(ctx, ipKey(purpose, ip), l.policy.IPRequestLimit)
}

func (l *RedisLimiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return l.incr(ctx, ipKey(purpose, ip), l.policy.IPWindow)
}

func (l *RedisLimiter) CheckLoginFailures(ctx context.Context, identifier string) (bool, error) {
	return l.exceeded(ctx, loginFailureKey(identifier), l.policy.MaxFailedLogins)
}

func (l *RedisLimiter) RecordLoginFailure(ctx context.Context, identifier string) error {
	return l.incr(ctx, loginFailureKey(identifier), l.policy.LockoutWindow)
}

func (l *RedisLimiter) ResetLoginFailures(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, loginFailureKey(identifier)).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

func (l *RedisLimiter) exceeded(ctx context.Context, key string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	count, err := l.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read counter %s: %w", key, err)
	}

	return count >= limit, nil
}

// incr bumps the counter; the first hit of a window sets its expiry.
func (l *RedisLimiter) incr(ctx context.Context, key string, window time.Duration) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", key, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("failed to set counter expiry %s: %w", key, err)
		}
	}

	return nil
}
