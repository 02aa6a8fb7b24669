package order

import (
	"fmt"
	"time"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/payment"
)

// Params carries the raw fields of an order before validation.
type Params struct {
	Type              catalog.OrderType
	ID                string
	ReferenceID       string
	Items             []LineItem
	Start             time.Time
	End               time.Time
	OnPremise         bool
	Payments          []payment.Line
	DiscountPercent   int
	ServiceFeePercent int
}

// Order is a validated order. Its items and payments are private copies.
type Order struct {
	typ         catalog.OrderType
	id          string
	referenceID string
	items       []LineItem
	start       time.Time
	end         time.Time
	onPremise   bool
	payments    []payment.Line
	discount    int
	serviceFee  int
}

// New validates p and returns the order. Errors wrap one of the package
// sentinels and can be matched with errors.Is.
func New(p Params) (Order, error) {
	if err := validate(p); err != nil {
		return Order{}, fmt.Errorf("order %s: %w", p.ID, err)
	}
	o := Order{
		typ:         p.Type,
		id:          p.ID,
		referenceID: p.ReferenceID,
		onPremise:   p.OnPremise,
	}
	if p.Type == catalog.OrderCancellation {
		return o, nil
	}
	o.items = append([]LineItem(nil), p.Items...)
	o.payments = append([]payment.Line(nil), p.Payments...)
	o.start = p.Start
	o.end = p.End
	o.discount = p.DiscountPercent
	o.serviceFee = p.ServiceFeePercent
	return o, nil
}

func validate(p Params) error {
	if p.ID == "" {
		return ErrMissingID
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}
	if p.Type == catalog.OrderNormal && p.DiscountPercent > 100 {
		return ErrInvalidDiscount
	}
	if p.Type != catalog.OrderNormal && p.ReferenceID == "" {
		return ErrMissingReferenceID
	}
	if p.Type == catalog.OrderCancellation {
		return nil
	}
	if len(p.Items) == 0 {
		return ErrMissingItems
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrMissingWindow
	}
	if p.End.Before(p.Start) {
		return ErrInvalidWindow
	}
	if len(p.Payments) == 0 {
		return ErrMissingPayments
	}
	for _, pl := range p.Payments {
		if !pl.Method.Valid() || pl.Method == catalog.PaymentRounding {
			return fmt.Errorf("%w: method %q", ErrInvalidPayment, pl.Method)
		}
	}
	if p.DiscountPercent < 0 {
		return ErrInvalidDiscount
	}
	if p.ServiceFeePercent < 0 {
		return ErrInvalidServiceFee
	}
	return nil
}

func (o Order) Type() catalog.OrderType { return o.typ }
func (o Order) ID() string              { return o.id }
func (o Order) ReferenceID() string     { return o.referenceID }
func (o Order) Start() time.Time        { return o.start }
func (o Order) End() time.Time          { return o.end }
func (o Order) OnPremise() bool         { return o.onPremise }
func (o Order) DiscountPercent() int    { return o.discount }
func (o Order) ServiceFeePercent() int  { return o.serviceFee }

// Items returns a copy of the order's line items.
func (o Order) Items() []LineItem { return append([]LineItem(nil), o.items...) }

// Payments returns a copy of the order's payment lines.
func (o Order) Payments() []payment.Line { return append([]payment.Line(nil), o.payments...) }

// IsCancellation reports whether the order voids an earlier one.
func (o Order) IsCancellation() bool { return o.typ == catalog.OrderCancellation }
