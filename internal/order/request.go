package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/common"
	"github.com/noah-isme/ntak-rms/internal/payment"
)

// ItemRequest is the JSON form of a line item accepted by the API and the
// preview tool.
type ItemRequest struct {
	Name        string           `json:"name" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	SubCategory string           `json:"subCategory" validate:"required"`
	VAT         string           `json:"vat" validate:"required"`
	UnitPrice   int64            `json:"unitPrice"`
	AmountUnit  string           `json:"amountUnit,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Quantity    int              `json:"quantity"`
	OrderedAt   *time.Time       `json:"orderedAt,omitempty"`
	IsDeposit   bool             `json:"isDeposit,omitempty"`
}

// PaymentRequest is the JSON form of a tender.
type PaymentRequest struct {
	Method string `json:"method" validate:"required"`
	Amount int64  `json:"amount"`
}

// Request is the JSON form of an order.
type Request struct {
	Type              string           `json:"type" validate:"required"`
	OrderID           string           `json:"orderId" validate:"required,max=128"`
	ReferenceID       string           `json:"referenceId,omitempty" validate:"max=128"`
	Start             *time.Time       `json:"start,omitempty"`
	End               *time.Time       `json:"end,omitempty"`
	OnPremise         *bool            `json:"onPremise,omitempty"`
	Items             []ItemRequest    `json:"items,omitempty" validate:"dive"`
	Payments          []PaymentRequest `json:"payments,omitempty" validate:"dive"`
	DiscountPercent   int              `json:"discountPercent,omitempty"`
	ServiceFeePercent int              `json:"serviceFeePercent,omitempty"`
}

// Order validates the request and converts it. Missing amount units default
// to pieces, missing amounts to the quantity, missing item timestamps to the
// order end, and a missing on-premise flag to true.
func (req Request) Order() (Order, error) {
	p := Params{
		Type:              catalog.OrderType(req.Type),
		ID:                req.OrderID,
		ReferenceID:       req.ReferenceID,
		OnPremise:         true,
		DiscountPercent:   req.DiscountPercent,
		ServiceFeePercent: req.ServiceFeePercent,
	}
	if req.OnPremise != nil {
		p.OnPremise = *req.OnPremise
	}
	if req.Start != nil {
		p.Start = *req.Start
	}
	if req.End != nil {
		p.End = *req.End
	}
	for i, ir := range req.Items {
		it, err := ir.lineItem(p.End)
		if err != nil {
			return Order{}, fmt.Errorf("order %s: items[%d]: %w", req.OrderID, i, err)
		}
		p.Items = append(p.Items, it)
	}
	for _, pr := range req.Payments {
		p.Payments = append(p.Payments, payment.Line{Method: catalog.PaymentMethod(pr.Method), Amount: pr.Amount})
	}
	return New(p)
}

func (ir ItemRequest) lineItem(fallback time.Time) (LineItem, error) {
	unit := catalog.AmountUnit(ir.AmountUnit)
	if unit == "" {
		unit = catalog.UnitPiece
	}
	amount := decimal.NewFromInt(int64(ir.Quantity))
	if ir.Amount != nil {
		amount = *ir.Amount
	}
	at := fallback
	if ir.OrderedAt != nil {
		at = *ir.OrderedAt
	}
	return NewLineItem(ItemParams{
		Name:        ir.Name,
		Category:    catalog.Category(ir.Category),
		SubCategory: catalog.SubCategory(ir.SubCategory),
		VAT:         catalog.VAT(ir.VAT),
		UnitPrice:   ir.UnitPrice,
		AmountUnit:  unit,
		Amount:      amount,
		Quantity:    ir.Quantity,
		OrderedAt:   at,
		IsDeposit:   ir.IsDeposit,
	})
}

// ValidationFailed maps an order construction error to the API error shape.
func ValidationFailed(err error) *common.AppError {
	return common.ValidationError("order validation failed", err).WithDetails(map[string]any{"reason": err.Error()})
}
