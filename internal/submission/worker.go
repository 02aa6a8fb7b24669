package submission

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/ntak-rms/internal/events"
	"github.com/noah-isme/ntak-rms/internal/obs"
	"github.com/noah-isme/ntak-rms/internal/queue"
)

// Worker runs the queued submission tasks.
type Worker struct {
	Service *Service
}

var _ queue.Handlers = Worker{}

// SubmitOrder sends a queued order. Invalid orders and requests NTAK refused
// outright are not retried.
func (w Worker) SubmitOrder(ctx context.Context, p queue.SubmitOrderPayload) error {
	s := w.Service
	o, err := p.Request.Order()
	if err != nil {
		obs.RecordSubmission(KindOrder, "invalid")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	_, sub, err := s.sendOrder(ctx, o)
	if err != nil {
		if permanent(err) {
			s.release(ctx, replayKey(string(o.Type()), o.ID()))
			obs.RecordSubmission(KindOrder, "rejected")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		obs.RecordSubmission(KindOrder, "error")
		return err
	}
	obs.RecordSubmission(KindOrder, StatusSent)
	s.emit(ctx, events.TopicOrderSent, p.SubmissionID, Result{
		SubmissionID: p.SubmissionID,
		Kind:         KindOrder,
		Key:          o.ID(),
		Status:       StatusSent,
		ProcessingID: sub.ProcessingID,
	})
	s.scheduleVerify(ctx, queue.VerifyPayload{
		SubmissionID: p.SubmissionID,
		ProcessingID: sub.ProcessingID,
		Kind:         KindOrder,
		Key:          o.ID(),
		Request:      &p.Request,
	}, s.verifyDelay())
	return nil
}

// Verify polls the processing result. Pending results are polled again
// later, results NTAK wants resent are sent again when the order is known.
func (w Worker) Verify(ctx context.Context, p queue.VerifyPayload) error {
	s := w.Service
	resp, _, err := s.NTAK.Verify(ctx, p.ProcessingID)
	if err != nil {
		if permanent(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	outcome := map[string]any{
		"kind":         p.Kind,
		"key":          p.Key,
		"processingId": p.ProcessingID,
		"status":       resp.Status,
		"attempt":      p.Attempt,
	}
	log := s.logger(ctx).With().
		Str("kind", p.Kind).
		Str("key", p.Key).
		Str("processing_id", p.ProcessingID).
		Str("status", string(resp.Status)).
		Int("attempt", p.Attempt).
		Logger()

	switch {
	case resp.IsSuccessful():
		obs.RecordSubmission(p.Kind, "accepted")
		log.Info().Msg("ntak_verified")
		s.emit(ctx, events.TopicAccepted, p.SubmissionID, outcome)
	case resp.Pending():
		if s.Queue == nil || p.Attempt+1 >= s.maxVerifyAttempts() {
			obs.RecordSubmission(p.Kind, "verify_exhausted")
			log.Error().Msg("ntak_verify_exhausted")
			s.emit(ctx, events.TopicVerifyExhausted, p.SubmissionID, outcome)
			return nil
		}
		next := p
		next.Attempt++
		if _, err := s.Queue.Verify(ctx, next, s.verifyDelay()); err != nil {
			return err
		}
		log.Debug().Msg("ntak_verify_pending")
	case resp.NeedsResend():
		if p.Request == nil {
			obs.RecordSubmission(p.Kind, "resend_unavailable")
			log.Error().Msg("ntak_resend_unavailable")
			return nil
		}
		o, err := p.Request.Order()
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		_, sub, err := s.sendOrder(ctx, o)
		if err != nil {
			return err
		}
		obs.RecordSubmission(p.Kind, "resent")
		log.Info().Str("new_processing_id", sub.ProcessingID).Msg("ntak_resent")
		outcome["newProcessingId"] = sub.ProcessingID
		s.emit(ctx, events.TopicOrderResent, p.SubmissionID, outcome)
		s.scheduleVerify(ctx, queue.VerifyPayload{
			SubmissionID: p.SubmissionID,
			ProcessingID: sub.ProcessingID,
			Kind:         p.Kind,
			Key:          p.Key,
			Request:      p.Request,
		}, s.verifyDelay())
	default:
		if p.Request != nil {
			s.release(ctx, replayKey(p.Request.Type, p.Request.OrderID))
		}
		obs.RecordSubmission(p.Kind, "rejected")
		var problems []string
		for _, he := range resp.HeaderErrors {
			problems = append(problems, he.Code+": "+he.Message)
		}
		for _, m := range resp.Unsuccessful {
			for _, e := range m.Errors {
				problems = append(problems, m.OrderID+" "+e.Code+": "+e.Message)
			}
		}
		log.Error().Int("failed_messages", len(resp.Unsuccessful)).Strs("errors", problems).Msg("ntak_rejected")
		outcome["errors"] = problems
		s.emit(ctx, events.TopicRejected, p.SubmissionID, outcome)
	}
	return nil
}
