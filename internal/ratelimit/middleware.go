package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/ntak-rms/internal/common"
)

// Rule names a quota and how requests are bucketed into it. Name prefixes
// every key, so two rules never share counters.
type Rule struct {
	Name string
	Key  func(*http.Request) string
	Rate limiter.Rate
}

// PerClientIP gives each client address perMinute requests per minute.
func PerClientIP(name string, perMinute int) Rule {
	return Rule{
		Name: name,
		Key:  common.ClientIP,
		Rate: limiter.Rate{Period: time.Minute, Limit: int64(perMinute)},
	}
}

// Handler applies Rule in front of the wrapped handler. When the limiter
// itself fails the request is let through and OnError, or the request
// logger, is told.
type Handler struct {
	Limiter Limiter
	Rule    Rule
	OnError func(error)
	Now     func() time.Time
}

func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Rule.Key == nil || h.Rule.Rate.Limit <= 0 {
		return next
	}
	now := h.Now
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := h.Limiter.Take(r.Context(), h.Rule.Name+":"+h.Rule.Key(r), h.Rule.Rate)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			} else {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("rule", h.Rule.Name).Msg("rate_limit_unavailable")
			}
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()
		header.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		header.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := max(d.Reset.Sub(now()), 0)
		header.Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded",
			map[string]any{"rule": h.Rule.Name, "retryAfterSeconds": int(wait.Round(time.Second) / time.Second)})
	})
}
