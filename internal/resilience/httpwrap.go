package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrRetriesExhausted wraps the last failure once every attempt has been used.
var ErrRetriesExhausted = errors.New("resilience: retries exhausted")

// HTTPClient sends a request with per-attempt timeouts, retries and an
// optional circuit breaker. A Retry-After header on a failed attempt
// lengthens the wait up to MaxRetryAfter.
type HTTPClient struct {
	Client        *http.Client
	Breaker       *Breaker
	BaseBackoff   time.Duration
	MaxAttempts   int
	Jitter        float64
	Timeout       time.Duration
	MaxRetryAfter time.Duration
	// Target names the downstream dependency in logs.
	Target string
	Logger *zerolog.Logger
	// Retryable decides whether an attempt failed. Nil means DefaultRetryable.
	Retryable func(*http.Response, error) bool
	Fallback  func(context.Context, *http.Request, error) (*http.Response, error)
}

// DefaultRetryable treats transport errors, 429 and 5xx as failures.
func DefaultRetryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// Do sends req until an attempt succeeds, fails permanently or the attempts
// run out. The body is buffered once so every attempt replays it. With the
// breaker open Do stops early with ErrOpenCircuit, handed to Fallback when
// one is set.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	retryable := cl.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}
	body, err := bufferBody(req)
	if err != nil {
		return nil, fmt.Errorf("resilience: buffer request body: %w", err)
	}

	attempts := max(cl.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			lastErr = ErrOpenCircuit
			break
		}
		resp, err := cl.doOnce(withBody(req.Clone(ctx), body))
		if !retryable(resp, err) {
			cl.report(ctx, err == nil)
			return resp, err
		}
		cl.report(ctx, false)

		wait := Backoff(cl.BaseBackoff, attempt, cl.Jitter)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
		} else {
			lastErr = fmt.Errorf("%w: %s", ErrRetriesExhausted, resp.Status)
			if ra, ok := retryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				wait = max(wait, min(ra, cl.maxRetryAfter()))
			}
			drain(resp)
		}
		if attempt == attempts {
			break
		}
		cl.logger(ctx).Warn().
			Str("target", cl.Target).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Err(lastErr).
			Msg("http_retry")
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	if cl.Fallback != nil {
		return cl.Fallback(ctx, req, lastErr)
	}
	return nil, lastErr
}

// Backoff returns base doubled per attempt after the first, spread by ±jitter
// (a fraction, 0.2 == 20%). A non-positive base means 100ms.
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(max(attempt, 1)-1)
	if jitter <= 0 {
		return d
	}
	spread := (rand.Float64()*2 - 1) * jitter * float64(d)
	return d + time.Duration(spread)
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
}

func (cl HTTPClient) maxRetryAfter() time.Duration {
	if cl.MaxRetryAfter <= 0 {
		return 30 * time.Second
	}
	return cl.MaxRetryAfter
}

func (cl HTTPClient) report(ctx context.Context, success bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, success)
	}
}

func (cl HTTPClient) doOnce(req *http.Request) (*http.Response, error) {
	if cl.Timeout <= 0 {
		return cl.Client.Do(req)
	}
	callCtx, cancel := context.WithTimeout(req.Context(), cl.Timeout)
	resp, err := cl.Client.Do(req.WithContext(callCtx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (cl HTTPClient) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	if cl.Logger != nil {
		return cl.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cancelOnClose keeps the per-attempt timeout alive until the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	src := req.Body
	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		src = fresh
	}
	defer func() { _ = src.Close() }()
	return io.ReadAll(src)
}

func withBody(req *http.Request, body []byte) *http.Request {
	if body == nil {
		return req
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
	req.ContentLength = int64(len(body))
	return req
}
