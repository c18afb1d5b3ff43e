package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneThreshold bounds how many idle keys accumulate before a sweep.
const pruneThreshold = 10000

// MemoryLimiter is the single-process fallback used when Redis is unavailable.
// IP budgets are token buckets refilled over IPWindow; login failures use a fixed window.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	failures map[string]*failureWindow
}

type failureWindow struct {
	count   int
	resetAt time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   policy,
		now:      time.Now,
		buckets:  make(map[string]*rate.Limiter),
		failures: make(map[string]*failureWindow),
	}
}

func (l *MemoryLimiter) bucket(key string) *rate.Limiter {
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= pruneThreshold {
			l.pruneBuckets()
		}
		every := l.policy.IPWindow / time.Duration(l.policy.IPRequestLimit)
		b = rate.NewLimiter(rate.Every(every), l.policy.IPRequestLimit)
		l.buckets[key] = b
	}
	return b
}

// pruneBuckets drops buckets that have refilled completely. Callers hold mu.
func (l *MemoryLimiter) pruneBuckets() {
	now := l.now()
	for k, b := range l.buckets {
		if b.TokensAt(now) >= float64(b.Burst()) {
			delete(l.buckets, k)
		}
	}
}

func (l *MemoryLimiter) CheckIPRateLimitWithPurpose(_ context.Context, ip, purpose string) (bool, error) {
	if l.policy.IPRequestLimit <= 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket(ipKey(purpose, ip)).TokensAt(l.now()) < 1, nil
}

func (l *MemoryLimiter) RecordIPRequestWithPurpose(_ context.Context, ip, purpose string) error {
	if l.policy.IPRequestLimit <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bucket(ipKey(purpose, ip)).AllowN(l.now(), 1)
	return nil
}

func (l *MemoryLimiter) CheckLoginFailures(_ context.Context, identifier string) (bool, error) {
	if l.policy.MaxFailedLogins <= 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.failures[loginFailureKey(identifier)]
	if !ok || !l.now().Before(w.resetAt) {
		return false, nil
	}
	return w.count >= l.policy.MaxFailedLogins, nil
}

func (l *MemoryLimiter) RecordLoginFailure(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := loginFailureKey(identifier)
	w, ok := l.failures[key]
	if !ok || !now.Before(w.resetAt) {
		if len(l.failures) >= pruneThreshold {
			for k, fw := range l.failures {
				if !now.Before(fw.resetAt) {
					delete(l.failures, k)
				}
			}
		}
		w = &failureWindow{resetAt: now.Add(l.policy.LockoutWindow)}
		l.failures[key] = w
	}
	w.count++
	return nil
}

func (l *MemoryLimiter) ResetLoginFailures(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, loginFailureKey(identifier))
	return nil
}
