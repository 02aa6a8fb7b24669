package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// ItemParams carries the raw fields of a line item before validation.
type ItemParams struct {
	Name        string
	Category    catalog.Category
	SubCategory catalog.SubCategory
	VAT         catalog.VAT
	UnitPrice   pricing.Money
	AmountUnit  catalog.AmountUnit
	Amount      decimal.Decimal
	Quantity    int
	OrderedAt   time.Time
	IsDeposit   bool
}

// LineItem is a single priced entry of an order. It is immutable once built.
type LineItem struct {
	name        string
	category    catalog.Category
	subCategory catalog.SubCategory
	vat         catalog.VAT
	unitPrice   pricing.Money
	amountUnit  catalog.AmountUnit
	amount      decimal.Decimal
	quantity    int
	orderedAt   time.Time
	isDeposit   bool
}

// NewLineItem validates p and returns the line item.
func NewLineItem(p ItemParams) (LineItem, error) {
	if p.Quantity < 1 {
		return LineItem{}, fmt.Errorf("item %q: %w", p.Name, ErrInvalidQuantity)
	}
	if p.Amount.IsNegative() {
		return LineItem{}, fmt.Errorf("item %q: %w", p.Name, ErrInvalidAmount)
	}
	switch {
	case !p.Category.Valid():
		return LineItem{}, fmt.Errorf("item %q: category %q: %w", p.Name, p.Category, ErrInvalidCode)
	case !p.Category.Allows(p.SubCategory):
		return LineItem{}, fmt.Errorf("item %q: sub-category %q under %s: %w", p.Name, p.SubCategory, p.Category, ErrInvalidCode)
	case !p.VAT.Valid():
		return LineItem{}, fmt.Errorf("item %q: vat %q: %w", p.Name, p.VAT, ErrInvalidCode)
	case !p.AmountUnit.Valid():
		return LineItem{}, fmt.Errorf("item %q: amount unit %q: %w", p.Name, p.AmountUnit, ErrInvalidCode)
	}
	return LineItem{
		name:        p.Name,
		category:    p.Category,
		subCategory: p.SubCategory,
		vat:         p.VAT,
		unitPrice:   p.UnitPrice,
		amountUnit:  p.AmountUnit,
		amount:      p.Amount,
		quantity:    p.Quantity,
		orderedAt:   p.OrderedAt,
		isDeposit:   p.IsDeposit,
	}, nil
}

func (i LineItem) Name() string                     { return i.name }
func (i LineItem) Category() catalog.Category       { return i.category }
func (i LineItem) SubCategory() catalog.SubCategory { return i.subCategory }
func (i LineItem) VAT() catalog.VAT                 { return i.vat }
func (i LineItem) UnitPrice() pricing.Money         { return i.unitPrice }
func (i LineItem) AmountUnit() catalog.AmountUnit   { return i.amountUnit }
func (i LineItem) Amount() decimal.Decimal          { return i.amount }
func (i LineItem) Quantity() int                    { return i.quantity }
func (i LineItem) OrderedAt() time.Time             { return i.orderedAt }
func (i LineItem) IsDeposit() bool                  { return i.isDeposit }

// GrossTotal is the unit price times the quantity, deposit portion included.
func (i LineItem) GrossTotal() pricing.Money {
	return pricing.Gross(i.unitPrice, i.quantity)
}

// DepositPortion is the part of the gross total billed on the deposit line.
func (i LineItem) DepositPortion(depositUnit pricing.Money) pricing.Money {
	if !i.isDeposit {
		return 0
	}
	return pricing.Money(i.quantity) * depositUnit
}

// LineTotal is the amount reported on the item's own line.
func (i LineItem) LineTotal(depositUnit pricing.Money) pricing.Money {
	return i.GrossTotal() - i.DepositPortion(depositUnit)
}

// EffectiveVAT returns the rate to report for the item. Drinks prepared on
// premise but taken away are taxed at 27%.
func (i LineItem) EffectiveVAT(onPremise bool) catalog.VAT {
	if !onPremise && i.category == catalog.CategoryOnPremiseSoftDrink {
		return catalog.VAT27
	}
	return i.vat
}

// billable reports whether the item takes part in VAT grouping.
func (i LineItem) billable() bool {
	return !i.isDeposit && !i.subCategory.IsAdjustment()
}
