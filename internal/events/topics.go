package events

// Topics emitted while a submission moves through NTAK.
const (
	TopicOrderSent       = "order.sent"
	TopicOrderQueued     = "order.queued"
	TopicOrderResent     = "order.resent"
	TopicDayClosed       = "day.closed"
	TopicAccepted        = "submission.accepted"
	TopicRejected        = "submission.rejected"
	TopicVerifyExhausted = "submission.verify_exhausted"
)

// DefaultTopics returns every topic the service emits.
func DefaultTopics() []string {
	return []string{
		TopicOrderSent,
		TopicOrderQueued,
		TopicOrderResent,
		TopicDayClosed,
		TopicAccepted,
		TopicRejected,
		TopicVerifyExhausted,
	}
}
