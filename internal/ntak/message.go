package ntak

import (
	"time"

	"github.com/noah-isme/ntak-rms/internal/dayclose"
	"github.com/noah-isme/ntak-rms/internal/order"
)

// Identity identifies the venue and the sending RMS software.
type Identity struct {
	TaxNumber         string
	RegNumber         string
	SoftwareRegNumber string
	SoftwareVersion   string
}

type providerData struct {
	TaxNumber string `json:"adoszam"`
	RegNumber string `json:"vendeglatoUzletRegSzam"`
}

type messageData struct {
	SentAt string `json:"uzenetKuldesIdeje"`
}

type senderData struct {
	SoftwareRegNumber string `json:"rmsRendszerNTAKAzonosito"`
	SoftwareVersion   string `json:"rmsRendszerVerzioszam"`
}

// Header is the service identity block every message starts with.
type Header struct {
	Provider providerData `json:"szolgaltatoAdatok"`
	Message  messageData  `json:"uzenetAdatok"`
	Sender   senderData   `json:"kuldoRendszerAdatok"`
}

// NewHeader builds the header for a message sent at when.
func NewHeader(id Identity, when time.Time) Header {
	return Header{
		Provider: providerData{TaxNumber: id.TaxNumber, RegNumber: id.RegNumber},
		Message:  messageData{SentAt: when.In(order.Budapest).Format(time.RFC3339)},
		Sender:   senderData{SoftwareRegNumber: id.SoftwareRegNumber, SoftwareVersion: id.SoftwareVersion},
	}
}

// OrderMessage reports one or more order summaries.
type OrderMessage struct {
	Header
	Orders []order.Payload `json:"rendelesOsszesitok"`
}

// DayCloseMessage reports the closing of a business day.
type DayCloseMessage struct {
	Header
	Closing dayclose.Payload `json:"zarasiInformaciok"`
}

type processingRef struct {
	ProcessingID string `json:"feldolgozasAzonosito"`
}

// VerifyMessage asks for the processing result of earlier submissions.
type VerifyMessage struct {
	Header
	ProcessingIDs []processingRef `json:"feldolgozasAzonositok"`
}
