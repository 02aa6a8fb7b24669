package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

type brokenLimiter struct{}

func (brokenLimiter) Take(context.Context, string, limiter.Rate) (Decision, error) {
	return Decision{}, errors.New("store down")
}

type recordingLimiter struct{ keys []string }

func (l *recordingLimiter) Take(_ context.Context, key string, rate limiter.Rate) (Decision, error) {
	l.keys = append(l.keys, key)
	return Decision{Allowed: true, Limit: rate.Limit, Remaining: rate.Limit - 1}, nil
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func TestMiddlewareRejectsOverQuota(t *testing.T) {
	h := Handler{
		Limiter: StoreLimiter{Store: memory.NewStore()},
		Rule:    Rule{Name: "orders", Key: func(*http.Request) string { return "till-1" }, Rate: limiter.Rate{Period: time.Minute, Limit: 1}},
	}.Middleware(ok)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/orders", nil))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/orders", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	require.Equal(t, "RATE_LIMITED", body.Error.Code)
	require.Equal(t, "orders", body.Error.Details["rule"])
}

func TestMiddlewareFailsOpen(t *testing.T) {
	var seen error
	h := Handler{Limiter: brokenLimiter{}, Rule: PerClientIP("v1", 1), OnError: func(err error) { seen = err }}.Middleware(ok)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualError(t, seen, "store down")
}

func TestPerClientIPKeysByRuleAndAddress(t *testing.T) {
	rec := &recordingLimiter{}
	h := Handler{Limiter: rec, Rule: PerClientIP("v1", 5)}.Middleware(ok)
	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		req.Header.Set("X-Forwarded-For", ip)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, []string{"v1:10.0.0.1", "v1:10.0.0.2"}, rec.keys)
}

func TestMiddlewareDisabledWithoutQuota(t *testing.T) {
	rec := &recordingLimiter{}
	h := Handler{Limiter: rec, Rule: PerClientIP("v1", 0)}.Middleware(ok)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rec.keys)
}

func TestRedisLimiterCountsAcrossCalls(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewRedisLimiter(client, "test")
	require.NoError(t, err)

	ctx := context.Background()
	rate := limiter.Rate{Period: time.Minute, Limit: 2}
	for i := range 2 {
		d, err := l.Take(ctx, "v1:10.0.0.1", rate)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.EqualValues(t, 1-i, d.Remaining)
	}
	d, err := l.Take(ctx, "v1:10.0.0.1", rate)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Len(t, mr.Keys(), 1)
}
