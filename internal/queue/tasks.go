// Package queue defines the background tasks of the NTAK submission flow and
// wires them onto asynq.
package queue

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/ntak-rms/internal/order"
)

const (
	TypeSubmitOrder = "ntak:submit_order"
	TypeVerify      = "ntak:verify"
)

// SubmitOrderPayload carries an order to be built and sent.
type SubmitOrderPayload struct {
	SubmissionID string        `json:"submissionId"`
	Request      order.Request `json:"request"`
}

// VerifyPayload asks for the processing result of an earlier submission.
// Request is set for order submissions so they can be sent again when NTAK
// asks for it.
type VerifyPayload struct {
	SubmissionID string         `json:"submissionId"`
	ProcessingID string         `json:"processingId"`
	Kind         string         `json:"kind"`
	Key          string         `json:"key"`
	Attempt      int            `json:"attempt"`
	Request      *order.Request `json:"request,omitempty"`
}

// NewSubmitOrderTask encodes p as an asynq task.
func NewSubmitOrderTask(p SubmitOrderPayload) (*asynq.Task, error) {
	if p.Request.OrderID == "" {
		return nil, fmt.Errorf("queue: %s: missing order id", TypeSubmitOrder)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("queue: encode %s: %w", TypeSubmitOrder, err)
	}
	return asynq.NewTask(TypeSubmitOrder, body), nil
}

// NewVerifyTask encodes p as an asynq task.
func NewVerifyTask(p VerifyPayload) (*asynq.Task, error) {
	if p.ProcessingID == "" {
		return nil, fmt.Errorf("queue: %s: missing processing id", TypeVerify)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("queue: encode %s: %w", TypeVerify, err)
	}
	return asynq.NewTask(TypeVerify, body), nil
}

// SubmitTaskID identifies the pending submission of one order version.
func SubmitTaskID(orderType, orderID string) string {
	return "submit:" + orderType + ":" + orderID
}

// VerifyTaskID identifies one verification attempt.
func VerifyTaskID(processingID string, attempt int) string {
	return "verify:" + processingID + ":" + strconv.Itoa(attempt)
}

func decode[T any](t *asynq.Task) (T, error) {
	var p T
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("queue: decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return p, nil
}
