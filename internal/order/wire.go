package order

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/ntak-rms/internal/payment"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// LinePayload is the wire form of a generated line (rendelesTetel).
type LinePayload struct {
	Name        string        `json:"megnevezes"`
	Category    string        `json:"fokategoria"`
	SubCategory string        `json:"alkategoria"`
	VAT         string        `json:"afaKategoria"`
	UnitPrice   pricing.Money `json:"bruttoEgysegar"`
	AmountUnit  string        `json:"mennyisegiEgyseg"`
	Amount      json.Number   `json:"mennyiseg"`
	Quantity    int           `json:"tetelszam"`
	OrderedAt   string        `json:"rendelesIdopontja"`
	Total       pricing.Money `json:"tetelOsszesito"`
}

// PaymentInfo is the wire form of the payment block (fizetesiInformaciok).
type PaymentInfo struct {
	GrandTotal pricing.Money  `json:"rendelesVegosszegeHUF"`
	Methods    []payment.Line `json:"fizetesiModok"`
}

// Payload is the wire form of one order summary (rendelesOsszesito).
type Payload struct {
	Type        string        `json:"rendelesBesorolasa"`
	OrderID     string        `json:"rmsRendelesAzonosito"`
	ReferenceID *string       `json:"hivatkozottRendelesOsszesito"`
	BusinessDay *string       `json:"targynap"`
	Start       *string       `json:"rendelesKezdete"`
	End         *string       `json:"rendelesVege"`
	OnPremise   *bool         `json:"helybenFogyasztott"`
	Aggregated  *bool         `json:"osszesitett"`
	PaymentInfo *PaymentInfo  `json:"fizetesiInformaciok"`
	Lines       []LinePayload `json:"rendelesTetelek"`
}

// Payload converts the report to its wire form. Cancellations carry only the
// type and the two order ids.
func (r Report) Payload() Payload {
	loc := r.loc
	if loc == nil {
		loc = Budapest
	}
	p := Payload{
		Type:    string(r.Type),
		OrderID: r.OrderID,
	}
	if r.ReferenceID != "" {
		ref := r.ReferenceID
		p.ReferenceID = &ref
	}
	if r.IsCancellation() {
		return p
	}
	day := r.End.In(loc).Format(time.DateOnly)
	start := formatTime(r.Start, loc)
	end := formatTime(r.End, loc)
	onPremise := r.OnPremise
	aggregated := false
	p.BusinessDay = &day
	p.Start = &start
	p.End = &end
	p.OnPremise = &onPremise
	p.Aggregated = &aggregated
	p.PaymentInfo = &PaymentInfo{
		GrandTotal: r.GrandTotal,
		Methods:    append([]payment.Line{}, r.Payments.Lines...),
	}
	p.Lines = make([]LinePayload, 0, len(r.Lines))
	for _, l := range r.Lines {
		p.Lines = append(p.Lines, l.payload(loc))
	}
	return p
}

// MarshalJSON renders the report as its wire payload.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}

func (l GeneratedLine) payload(loc *time.Location) LinePayload {
	return LinePayload{
		Name:        l.Name,
		Category:    string(l.Category),
		SubCategory: string(l.SubCategory),
		VAT:         string(l.VAT),
		UnitPrice:   l.UnitPrice,
		AmountUnit:  string(l.AmountUnit),
		Amount:      json.Number(l.Amount.Round(2).String()),
		Quantity:    l.Quantity,
		OrderedAt:   formatTime(l.OrderedAt, loc),
		Total:       l.Total,
	}
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}
