package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/ntak-rms/internal/common"
	"github.com/noah-isme/ntak-rms/internal/resilience"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness, e.g. while the server drains on shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// BreakerState exposes the NTAK circuit breaker. *resilience.Breaker satisfies it.
type BreakerState interface {
	Snapshot() resilience.Stats
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	Breaker      BreakerState
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the Redis probe. The NTAK breaker state is
// reported but an open breaker does not make the service unready.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "dependencies unavailable", nil)
		return
	}
	redisStatus := "ok"
	if err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); err != nil {
		redisStatus = err.Error()
	}
	status := map[string]string{"redis": redisStatus}
	if h.Breaker != nil {
		snap := h.Breaker.Snapshot()
		status["ntak"] = snap.State.String()
		if snap.RetryAt != nil {
			status["ntak_retry_at"] = snap.RetryAt.UTC().Format(time.RFC3339)
		}
	}
	code := http.StatusOK
	if !ready.Load() {
		status["server"] = "shutting_down"
		code = http.StatusServiceUnavailable
	}
	if redisStatus != "ok" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
