package payment

import (
	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// CashStep is the smallest coin denomination cash amounts are rounded to.
const CashStep = 5

// Line is one tender of an order.
type Line struct {
	Method catalog.PaymentMethod `json:"fizetesiMod"`
	Amount pricing.Money         `json:"fizetettOsszegHUF"`
}

// Result is the reportable payment list.
type Result struct {
	Lines []Line
	// Remainder accumulates original minus rounded over cash lines.
	Remainder pricing.Money
}

// Total returns the sum of the reported lines, rounding line included.
func (r Result) Total() pricing.Money {
	var sum pricing.Money
	for _, l := range r.Lines {
		sum += l.Amount
	}
	return sum
}

// Round rounds cash tenders to CashStep and, when that leaves a remainder,
// appends a single rounding line that brings the reported payments back to
// grandTotal. Non-cash tenders pass through unchanged.
func Round(lines []Line, grandTotal pricing.Money) Result {
	out := Result{Lines: make([]Line, 0, len(lines)+1)}
	var rounded pricing.Money
	for _, l := range lines {
		amount := l.Amount
		if l.Method.IsCash() {
			amount = pricing.RoundToStep(l.Amount, CashStep)
			out.Remainder += l.Amount - amount
		}
		rounded += amount
		out.Lines = append(out.Lines, Line{Method: l.Method, Amount: amount})
	}
	if out.Remainder != 0 {
		out.Lines = append(out.Lines, Line{Method: catalog.PaymentRounding, Amount: grandTotal - rounded})
	}
	return out
}
