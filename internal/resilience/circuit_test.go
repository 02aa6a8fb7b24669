package resilience_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ntak-rms/internal/resilience"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func TestBreakerTransitions(t *testing.T) {
	clock := newClock()
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, resilience.Open, breaker.State())

	clock.Advance(time.Minute)
	require.True(t, breaker.Allow(ctx), "first caller after cool off is the probe")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerSingleProbe(t *testing.T) {
	clock := newClock()
	breaker := resilience.NewBreaker(1, 0.5, 10*time.Second).WithClock(clock.Now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	clock.Advance(10 * time.Second)

	require.True(t, breaker.Allow(ctx))
	require.False(t, breaker.Allow(ctx), "second caller must wait for the probe")

	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx), "failed probe restarts the cool off")

	clock.Advance(10 * time.Second)
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerSuccessesKeepItClosed(t *testing.T) {
	breaker := resilience.NewBreaker(4, 0.5, time.Second)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.True(t, breaker.Allow(ctx))
		breaker.Report(ctx, i%4 != 0)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerSnapshot(t *testing.T) {
	clock := newClock()
	breaker := resilience.NewBreaker(1, 0.5, 30*time.Second).WithClock(clock.Now)
	ctx := context.Background()

	require.Nil(t, breaker.Snapshot().RetryAt)

	breaker.Allow(ctx)
	breaker.Report(ctx, false)
	snap := breaker.Snapshot()
	require.Equal(t, resilience.Open, snap.State)
	require.NotNil(t, snap.RetryAt)
	require.Equal(t, clock.Now().Add(30*time.Second), *snap.RetryAt)

	body, err := json.Marshal(snap)
	require.NoError(t, err)
	require.Contains(t, string(body), `"state":"open"`)
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, base, resilience.Backoff(base, 0, 0))
	require.Equal(t, base*4, resilience.Backoff(base, 3, 0))

	for i := 0; i < 50; i++ {
		d := resilience.Backoff(base, 2, 0.2)
		require.GreaterOrEqual(t, d, base*2-base*2/5)
		require.LessOrEqual(t, d, base*2+base*2/5)
	}
}
