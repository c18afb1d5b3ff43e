// Package ratelimit throttles auth endpoints per client IP and locks out
// identifiers after repeated failed logins.
package ratelimit

import (
	"context"
	"time"
)

// Limiter is implemented by the Redis and in-memory backends.
type Limiter interface {
	// CheckIPRateLimitWithPurpose reports whether ip already used its budget for purpose.
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	// CheckLoginFailures reports whether identifier is locked out.
	CheckLoginFailures(ctx context.Context, identifier string) (bool, error)
	RecordLoginFailure(ctx context.Context, identifier string) error
	ResetLoginFailures(ctx context.Context, identifier string) error
}

// Policy holds the limits shared by both backends.
type Policy struct {
	IPRequestLimit  int
	IPWindow        time.Duration
	MaxFailedLogins int
	LockoutWindow   time.Duration
}

func ipKey(purpose, ip string) string {
	return "ratelimit:ip:" + purpose + ":" + ip
}

func loginFailureKey(identifier string) string {
	return "ratelimit:login_failures:" + identifier
}
