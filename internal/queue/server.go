package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Handlers processes decoded tasks.
type Handlers interface {
	SubmitOrder(ctx context.Context, p SubmitOrderPayload) error
	Verify(ctx context.Context, p VerifyPayload) error
}

// NewServeMux routes the submission task types to h.
func NewServeMux(h Handlers, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(instrument(logger))
	mux.HandleFunc(TypeSubmitOrder, func(ctx context.Context, t *asynq.Task) error {
		p, err := decode[SubmitOrderPayload](t)
		if err != nil {
			return err
		}
		return h.SubmitOrder(ctx, p)
	})
	mux.HandleFunc(TypeVerify, func(ctx context.Context, t *asynq.Task) error {
		p, err := decode[VerifyPayload](t)
		if err != nil {
			return err
		}
		return h.Verify(ctx, p)
	})
	return mux
}

func instrument(logger zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			taskID, _ := asynq.GetTaskID(ctx)
			retry, _ := asynq.GetRetryCount(ctx)
			l := logger.With().Str("task_type", t.Type()).Str("task_id", taskID).Int("retry", retry).Logger()
			err := next.ProcessTask(l.WithContext(ctx), t)
			status := "ok"
			switch {
			case err == nil:
			case errors.Is(err, asynq.SkipRetry):
				status = "dropped"
			default:
				status = "error"
			}
			QueueProcessedTotal.WithLabelValues(t.Type(), status).Inc()
			evt := l.Info()
			if err != nil {
				evt = l.Warn().Err(err)
			}
			evt.Str("status", status).Dur("took", time.Since(start)).Msg("task_processed")
			return err
		})
	}
}

// ServerConfig tunes the asynq worker.
type ServerConfig struct {
	Concurrency int
	Queue       string
	// RetryBase is the first retry delay, doubled per attempt.
	RetryBase       time.Duration
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
}

// NewServer builds an asynq server consuming the configured queue.
func NewServer(opt asynq.RedisConnOpt, cfg ServerConfig) *asynq.Server {
	q := cfg.Queue
	if q == "" {
		q = DefaultQueue
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := cfg.Logger
	return asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{q: 1},
		ShutdownTimeout: cfg.ShutdownTimeout,
		RetryDelayFunc:  RetryDelay(cfg.RetryBase),
		Logger:          Logger{L: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retry >= maxRetry {
				logger.Error().Err(err).Str("task_type", t.Type()).Msg("task_archived")
			}
		}),
	})
}

// RetryDelay returns exponential backoff starting at base and capped at ten
// minutes.
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	if base <= 0 {
		base = 2 * time.Second
	}
	const ceiling = 10 * time.Minute
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		d := base
		for i := 0; i < n && d < ceiling; i++ {
			d *= 2
		}
		if d > ceiling {
			d = ceiling
		}
		return d
	}
}

// Logger adapts zerolog to asynq.Logger.
type Logger struct {
	L zerolog.Logger
}

func (l Logger) Debug(args ...any) { l.L.Debug().Msg(fmt.Sprint(args...)) }
func (l Logger) Info(args ...any)  { l.L.Info().Msg(fmt.Sprint(args...)) }
func (l Logger) Warn(args ...any)  { l.L.Warn().Msg(fmt.Sprint(args...)) }
func (l Logger) Error(args ...any) { l.L.Error().Msg(fmt.Sprint(args...)) }
func (l Logger) Fatal(args ...any) { l.L.Fatal().Msg(fmt.Sprint(args...)) }
