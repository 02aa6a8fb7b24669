package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// DepositLineName is the name of the aggregated returnable packaging line.
const DepositLineName = "Betétdíj"

// DepositQuantity sums the quantities of deposit-bearing items.
func DepositQuantity(items []LineItem) int {
	var qty int
	for _, it := range items {
		if it.IsDeposit() {
			qty += it.Quantity()
		}
	}
	return qty
}

// depositLine returns the single packaging surcharge line, or false when no
// item carries a deposit.
func depositLine(items []LineItem, unit pricing.Money, vat catalog.VAT, at time.Time) (GeneratedLine, bool) {
	qty := DepositQuantity(items)
	if qty == 0 {
		return GeneratedLine{}, false
	}
	return GeneratedLine{
		Kind:        KindDeposit,
		Name:        DepositLineName,
		Category:    catalog.CategoryOther,
		SubCategory: catalog.SubEcoPackaging,
		VAT:         vat,
		UnitPrice:   unit,
		AmountUnit:  catalog.UnitPiece,
		Amount:      decimal.NewFromInt(int64(qty)),
		Quantity:    qty,
		OrderedAt:   at,
		Total:       pricing.Money(qty) * unit,
	}, true
}
