package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream holding submission events.
const DefaultStream = "ntak:events"

// RedisStreamStore appends events to a capped Redis stream.
type RedisStreamStore struct {
	Client redis.UniversalClient
	Stream string
	// MaxLen caps the stream approximately. Zero keeps 10000 entries.
	MaxLen int64
}

func (s RedisStreamStore) stream() string {
	if s.Stream != "" {
		return s.Stream
	}
	return DefaultStream
}

// Append implements EventStore.
func (s RedisStreamStore) Append(ctx context.Context, ev Event) (string, error) {
	if s.Client == nil {
		return "", errors.New("events: redis client not configured")
	}
	maxLen := s.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return s.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream(),
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]any{
			"topic":         ev.Topic,
			"submission_id": ev.SubmissionID,
			"payload":       string(ev.Payload),
			"occurred_at":   ev.OccurredAt.Format(time.RFC3339Nano),
		},
	}).Result()
}

// Recent returns up to count events, newest first.
func (s RedisStreamStore) Recent(ctx context.Context, count int64) ([]Event, error) {
	if s.Client == nil {
		return nil, errors.New("events: redis client not configured")
	}
	msgs, err := s.Client.XRevRangeN(ctx, s.stream(), "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("events: read stream: %w", err)
	}
	out := make([]Event, 0, len(msgs))
	for _, m := range msgs {
		ev := Event{
			ID:           m.ID,
			Topic:        field(m.Values, "topic"),
			SubmissionID: field(m.Values, "submission_id"),
			Payload:      json.RawMessage(field(m.Values, "payload")),
		}
		if ev.OccurredAt, err = time.Parse(time.RFC3339Nano, field(m.Values, "occurred_at")); err != nil {
			ev.OccurredAt = time.Time{}
		}
		if len(ev.Payload) == 0 {
			ev.Payload = json.RawMessage("{}")
		}
		out = append(out, ev)
	}
	return out, nil
}

func field(values map[string]any, key string) string {
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}
