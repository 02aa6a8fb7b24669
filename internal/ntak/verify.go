package ntak

import (
	"encoding/json"

	"github.com/noah-isme/ntak-rms/internal/catalog"
)

// MessageError is one error NTAK reported for a message or header.
type MessageError struct {
	Code    string `json:"hibaKod"`
	Message string `json:"hibaUzenet"`
	Field   string `json:"hibasMezo,omitempty"`
}

// MessageResult is the processing result of one submitted summary.
type MessageResult struct {
	OrderID string          `json:"rmsRendelesAzonosito,omitempty"`
	Errors  []MessageError  `json:"hibak,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw message alongside the decoded fields.
func (m *MessageResult) UnmarshalJSON(data []byte) error {
	type plain MessageResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MessageResult(p)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// VerifyResponse is the result of a verification call.
type VerifyResponse struct {
	ProcessingID string               `json:"feldolgozasAzonosito"`
	Status       catalog.VerifyStatus `json:"statusz"`
	Successful   []MessageResult      `json:"sikeresUzenetek"`
	Unsuccessful []MessageResult      `json:"sikertelenUzenetek"`
	HeaderErrors []MessageError       `json:"fejlecHibak"`
}

// IsSuccessful reports whether every message was processed.
func (v VerifyResponse) IsSuccessful() bool { return v.Status == catalog.VerifySucceeded }

// Pending reports whether NTAK has not finished processing yet.
func (v VerifyResponse) Pending() bool { return v.Status.Pending() }

// NeedsResend reports whether the submission has to be sent again.
func (v VerifyResponse) NeedsResend() bool { return v.Status.NeedsResend() }

type verifyEnvelope struct {
	Responses []VerifyResponse `json:"uzenetValaszok"`
}
