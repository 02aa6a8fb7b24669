// Package lock serialises work on one order or business day across API and
// worker replicas with a Redis lease.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned when the lease could not be taken before the
	// context ended.
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrLost is the cancellation cause seen by the callback when its lease
	// expired or was taken over while it ran.
	ErrLost = errors.New("lock: lease lost")
)

var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Locker hands out Redis leases keyed by order id or business day.
type Locker struct {
	R            redis.UniversalClient
	RetryBackoff time.Duration
	// Prefix namespaces every key, "ntak:lock:" when empty.
	Prefix string
}

// OrderKey is the lock key serialising submissions of one order id.
func (l Locker) OrderKey(orderID string) string { return l.prefix() + "order:" + orderID }

// DayKey is the lock key serialising closings of one business day.
func (l Locker) DayKey(day string) string { return l.prefix() + "day:" + day }

func (l Locker) prefix() string {
	if l.Prefix == "" {
		return "ntak:lock:"
	}
	return l.Prefix
}

// WithLock waits for the lease on key, runs fn and releases the lease. The
// lease is renewed every ttl/3 while fn runs; if a renewal finds the lease
// gone, fn's context is cancelled with ErrLost as its cause.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	if err := l.acquire(ctx, key, token, ttl); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go l.renew(runCtx, key, token, ttl, cancel, done)
	defer func() {
		cancel(nil)
		<-done
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.R, []string{key}, token).Err()
	}()

	err := fn(runCtx)
	if cause := context.Cause(runCtx); errors.Is(cause, ErrLost) && err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLost, key, err)
	}
	return err
}

func (l Locker) acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	ticker := time.NewTicker(retry)
	defer ticker.Stop()
	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		switch {
		case ok:
			return nil
		case err != nil && ctx.Err() == nil:
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l Locker) renew(ctx context.Context, key, token string, ttl time.Duration, cancel context.CancelCauseFunc, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(max(ttl/3, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := renewScript.Run(ctx, l.R, []string{key}, token, ttl.Milliseconds()).Int()
			if err == nil && n == 0 {
				cancel(ErrLost)
				return
			}
		}
	}
}
