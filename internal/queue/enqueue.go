package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// ErrDuplicate is returned when an identical task is already queued.
var ErrDuplicate = errors.New("queue: duplicate task")

// TaskClient is the part of *asynq.Client the enqueuer needs.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules submission tasks.
type Enqueuer struct {
	Client TaskClient
	// Queue defaults to "ntak".
	Queue    string
	MaxRetry int
	// Timeout bounds a single task run, 2 minutes when zero.
	Timeout time.Duration
}

// DefaultQueue is the asynq queue used when none is configured.
const DefaultQueue = "ntak"

// SubmitOrder queues the submission of an order. A second call for the same
// order version while the first is still known to asynq returns ErrDuplicate.
func (e Enqueuer) SubmitOrder(ctx context.Context, p SubmitOrderPayload) (*asynq.TaskInfo, error) {
	task, err := NewSubmitOrderTask(p)
	if err != nil {
		return nil, err
	}
	return e.enqueue(ctx, task, asynq.TaskID(SubmitTaskID(p.Request.Type, p.Request.OrderID)))
}

// Verify queues a verification to run after delay.
func (e Enqueuer) Verify(ctx context.Context, p VerifyPayload, delay time.Duration) (*asynq.TaskInfo, error) {
	task, err := NewVerifyTask(p)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.TaskID(VerifyTaskID(p.ProcessingID, p.Attempt))}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	return e.enqueue(ctx, task, opts...)
}

func (e Enqueuer) enqueue(ctx context.Context, task *asynq.Task, extra ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.Client == nil {
		return nil, errors.New("queue: client not configured")
	}
	info, err := e.Client.EnqueueContext(ctx, task, append(e.options(), extra...)...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, task.Type())
		}
		return nil, fmt.Errorf("queue: enqueue %s: %w", task.Type(), err)
	}
	QueueEnqueuedTotal.WithLabelValues(task.Type()).Inc()
	return info, nil
}

func (e Enqueuer) options() []asynq.Option {
	q := e.Queue
	if q == "" {
		q = DefaultQueue
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	opts := []asynq.Option{asynq.Queue(q), asynq.Timeout(timeout)}
	if e.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(e.MaxRetry))
	}
	return opts
}
