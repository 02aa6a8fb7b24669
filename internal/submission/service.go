// Package submission sends order reports and daily closings to NTAK and
// follows them up until NTAK has processed them.
package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/ntak-rms/internal/common"
	"github.com/noah-isme/ntak-rms/internal/dayclose"
	"github.com/noah-isme/ntak-rms/internal/events"
	"github.com/noah-isme/ntak-rms/internal/lock"
	"github.com/noah-isme/ntak-rms/internal/ntak"
	"github.com/noah-isme/ntak-rms/internal/obs"
	"github.com/noah-isme/ntak-rms/internal/order"
	"github.com/noah-isme/ntak-rms/internal/pricing"
	"github.com/noah-isme/ntak-rms/internal/queue"
)

var (
	ErrInvalid          = errors.New("submission: invalid request")
	ErrAlreadySubmitted = errors.New("submission: order already submitted")
)

const (
	KindOrder = "order"
	KindDay   = "day"

	StatusSent   = "sent"
	StatusQueued = "queued"
)

// Sender is the NTAK client surface used here. *ntak.Client satisfies it.
type Sender interface {
	StoreOrders(ctx context.Context, payloads ...order.Payload) (ntak.Submission, error)
	CloseDay(ctx context.Context, closing dayclose.Payload) (ntak.Submission, error)
	Verify(ctx context.Context, processingID string) (ntak.VerifyResponse, ntak.Exchange, error)
}

// Scheduler queues background work. queue.Enqueuer satisfies it.
type Scheduler interface {
	SubmitOrder(ctx context.Context, p queue.SubmitOrderPayload) (*asynq.TaskInfo, error)
	Verify(ctx context.Context, p queue.VerifyPayload, delay time.Duration) (*asynq.TaskInfo, error)
}

// Emitter records submission lifecycle events. *events.Bus satisfies it.
type Emitter interface {
	Emit(ctx context.Context, topic, submissionID string, payload any) (events.Event, error)
}

// Config holds the timing knobs of the service.
type Config struct {
	ReplayTTL   time.Duration
	LockTTL     time.Duration
	VerifyDelay time.Duration
	// MaxVerifyAttempts bounds how often a pending submission is polled.
	MaxVerifyAttempts int
}

// Service orchestrates submissions. A nil Queue disables follow-up
// verification and asynchronous submission.
type Service struct {
	Builder  order.Builder
	NTAK     Sender
	Queue    Scheduler
	Locker   lock.Locker
	Replay   ReplayGuard
	Events   Emitter
	Config   Config
	Location *time.Location
	Logger   zerolog.Logger
}

// Result describes an accepted submission.
type Result struct {
	SubmissionID string         `json:"submissionId"`
	Kind         string         `json:"kind"`
	Key          string         `json:"key"`
	Status       string         `json:"status"`
	ProcessingID string         `json:"processingId,omitempty"`
	GrandTotal   *pricing.Money `json:"grandTotal,omitempty"`
}

// Submit builds the order report and sends it right away.
func (s *Service) Submit(ctx context.Context, req order.Request) (Result, error) {
	o, err := req.Order()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	key := replayKey(string(o.Type()), o.ID())
	if err := s.claim(ctx, key); err != nil {
		obs.RecordSubmission(KindOrder, "duplicate")
		return Result{}, err
	}
	res := Result{SubmissionID: uuid.NewString(), Kind: KindOrder, Key: o.ID()}
	report, sub, err := s.sendOrder(ctx, o)
	if err != nil {
		s.release(ctx, key)
		obs.RecordSubmission(KindOrder, "error")
		return res, err
	}
	obs.RecordSubmission(KindOrder, StatusSent)
	res.Status = StatusSent
	res.ProcessingID = sub.ProcessingID
	if !report.IsCancellation() {
		total := report.GrandTotal
		res.GrandTotal = &total
	}
	s.emit(ctx, events.TopicOrderSent, res.SubmissionID, res)
	s.scheduleVerify(ctx, queue.VerifyPayload{
		SubmissionID: res.SubmissionID,
		ProcessingID: sub.ProcessingID,
		Kind:         KindOrder,
		Key:          o.ID(),
		Request:      &req,
	}, s.verifyDelay())
	return res, nil
}

// Enqueue validates the order and leaves sending to the worker.
func (s *Service) Enqueue(ctx context.Context, req order.Request) (Result, error) {
	o, err := req.Order()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.Queue == nil {
		return Result{}, errors.New("submission: queue not configured")
	}
	key := replayKey(string(o.Type()), o.ID())
	if err := s.claim(ctx, key); err != nil {
		obs.RecordSubmission(KindOrder, "duplicate")
		return Result{}, err
	}
	res := Result{SubmissionID: uuid.NewString(), Kind: KindOrder, Key: o.ID(), Status: StatusQueued}
	if _, err := s.Queue.SubmitOrder(ctx, queue.SubmitOrderPayload{SubmissionID: res.SubmissionID, Request: req}); err != nil {
		s.release(ctx, key)
		if errors.Is(err, queue.ErrDuplicate) {
			return Result{}, fmt.Errorf("%w: %w", ErrAlreadySubmitted, err)
		}
		return Result{}, err
	}
	obs.RecordSubmission(KindOrder, StatusQueued)
	s.emit(ctx, events.TopicOrderQueued, res.SubmissionID, res)
	return res, nil
}

// CloseDay sends the daily closing of one business day.
func (s *Service) CloseDay(ctx context.Context, req dayclose.Request) (Result, error) {
	c, err := req.Closing()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	payload := c.Payload(s.Location)
	res := Result{SubmissionID: uuid.NewString(), Kind: KindDay, Key: payload.BusinessDay}

	ctx, span := otel.Tracer("submission").Start(ctx, "submission.close_day")
	defer span.End()
	span.SetAttributes(attribute.String("ntak.business_day", payload.BusinessDay))

	var sub ntak.Submission
	err = s.Locker.WithLock(ctx, s.Locker.DayKey(payload.BusinessDay), s.lockTTL(), func(ctx context.Context) error {
		var err error
		sub, err = s.NTAK.CloseDay(ctx, payload)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		obs.RecordSubmission(KindDay, "error")
		return res, err
	}
	obs.RecordSubmission(KindDay, StatusSent)
	res.Status = StatusSent
	res.ProcessingID = sub.ProcessingID
	s.logger(ctx).Info().Str("business_day", payload.BusinessDay).Str("processing_id", sub.ProcessingID).Msg("ntak_day_closed")
	s.emit(ctx, events.TopicDayClosed, res.SubmissionID, res)
	s.scheduleVerify(ctx, queue.VerifyPayload{
		SubmissionID: res.SubmissionID,
		ProcessingID: sub.ProcessingID,
		Kind:         KindDay,
		Key:          payload.BusinessDay,
	}, s.verifyDelay())
	return res, nil
}

// Status asks NTAK for the processing result of a submission.
func (s *Service) Status(ctx context.Context, processingID string) (ntak.VerifyResponse, error) {
	resp, _, err := s.NTAK.Verify(ctx, processingID)
	return resp, err
}

func (s *Service) sendOrder(ctx context.Context, o order.Order) (order.Report, ntak.Submission, error) {
	ctx, span := otel.Tracer("submission").Start(ctx, "submission.send_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("ntak.order_id", o.ID()),
		attribute.String("ntak.order_type", string(o.Type())),
	)

	report := s.Builder.Build(o)
	obs.RecordReport(string(report.Type), report.Discount.Delta, report.ServiceFee.Delta)
	payload := report.Payload()
	digest := payloadDigest(payload)
	span.SetAttributes(attribute.String("ntak.payload_sha256", digest))

	var sub ntak.Submission
	err := s.Locker.WithLock(ctx, s.Locker.OrderKey(o.ID()), s.lockTTL(), func(ctx context.Context) error {
		var err error
		sub, err = s.NTAK.StoreOrders(ctx, payload)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger(ctx).Warn().Err(err).Str("order_id", o.ID()).Str("order_type", string(o.Type())).Msg("ntak_submit_failed")
		return report, sub, err
	}
	span.SetAttributes(attribute.String("ntak.processing_id", sub.ProcessingID))
	s.logger(ctx).Info().
		Str("order_id", o.ID()).
		Str("order_type", string(o.Type())).
		Str("processing_id", sub.ProcessingID).
		Int64("grand_total", report.GrandTotal).
		Str("payload_sha256", digest).
		Msg("ntak_submit")
	return report, sub, nil
}

// payloadDigest fingerprints the report body sent to NTAK.
func payloadDigest(p order.Payload) string {
	digest, err := common.DigestJSON(p)
	if err != nil {
		return ""
	}
	return digest
}

func (s *Service) claim(ctx context.Context, key string) error {
	if s.Replay == nil {
		return nil
	}
	ok, err := s.Replay.Acquire(ctx, key, s.replayTTL())
	if err != nil {
		return fmt.Errorf("submission: replay guard: %w", err)
	}
	if !ok {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *Service) release(ctx context.Context, key string) {
	if s.Replay == nil {
		return
	}
	if err := s.Replay.Release(context.WithoutCancel(ctx), key); err != nil {
		s.logger(ctx).Warn().Err(err).Str("key", key).Msg("replay_release_failed")
	}
}

func (s *Service) scheduleVerify(ctx context.Context, p queue.VerifyPayload, delay time.Duration) {
	if s.Queue == nil || p.ProcessingID == "" {
		return
	}
	if _, err := s.Queue.Verify(ctx, p, delay); err != nil {
		s.logger(ctx).Warn().Err(err).Str("processing_id", p.ProcessingID).Msg("verify_schedule_failed")
	}
}

func (s *Service) emit(ctx context.Context, topic, submissionID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(context.WithoutCancel(ctx), topic, submissionID, payload); err != nil {
		s.logger(ctx).Warn().Err(err).Str("topic", topic).Str("submission_id", submissionID).Msg("event_emit_failed")
	}
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

func (s *Service) replayTTL() time.Duration {
	if s.Config.ReplayTTL > 0 {
		return s.Config.ReplayTTL
	}
	return 24 * time.Hour
}

func (s *Service) lockTTL() time.Duration {
	if s.Config.LockTTL > 0 {
		return s.Config.LockTTL
	}
	return 30 * time.Second
}

func (s *Service) verifyDelay() time.Duration {
	if s.Config.VerifyDelay > 0 {
		return s.Config.VerifyDelay
	}
	return 30 * time.Second
}

func (s *Service) maxVerifyAttempts() int {
	if s.Config.MaxVerifyAttempts > 0 {
		return s.Config.MaxVerifyAttempts
	}
	return 20
}

// permanent reports whether retrying err cannot help.
func permanent(err error) bool {
	var apiErr *ntak.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return errors.Is(err, ntak.ErrInvalidCertificate)
}
