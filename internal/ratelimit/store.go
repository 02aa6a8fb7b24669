package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the limiter's answer for one request.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// Limiter spends one unit of key's quota under rate.
type Limiter interface {
	Take(ctx context.Context, key string, rate limiter.Rate) (Decision, error)
}

// StoreLimiter counts fixed windows in a ulule/limiter store.
type StoreLimiter struct {
	Store limiter.Store
}

// NewRedisLimiter keeps the counters in Redis under prefix, shared by every
// API replica.
func NewRedisLimiter(rdb redis.UniversalClient, prefix string) (StoreLimiter, error) {
	if prefix == "" {
		prefix = "ntak:ratelimit"
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix, MaxRetry: 3})
	if err != nil {
		return StoreLimiter{}, err
	}
	return StoreLimiter{Store: store}, nil
}

func (l StoreLimiter) Take(ctx context.Context, key string, rate limiter.Rate) (Decision, error) {
	if l.Store == nil || rate.Limit <= 0 || rate.Period <= 0 {
		return Decision{Allowed: true, Limit: rate.Limit, Remaining: rate.Limit}, nil
	}
	lctx, err := l.Store.Get(ctx, key, rate)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lctx.Reached,
		Limit:     lctx.Limit,
		Remaining: lctx.Remaining,
		Reset:     time.Unix(lctx.Reset, 0),
	}, nil
}
