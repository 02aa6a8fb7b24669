package order

import (
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/payment"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

const (
	DefaultDepositUnitPrice pricing.Money = 50
	DefaultDepositVAT                     = catalog.VAT0

	DiscountLineName   = "Kedvezmény"
	ServiceFeeLineName = "Szervízdíj"
)

// Budapest is the zone every reported timestamp is rendered in.
var Budapest = mustLoadLocation("Europe/Budapest")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// LineKind tells generated lines apart. It is not part of the wire format.
type LineKind string

const (
	KindProduct    LineKind = "product"
	KindDeposit    LineKind = "deposit"
	KindDiscount   LineKind = "discount"
	KindServiceFee LineKind = "service_fee"
)

// GeneratedLine is a report-ready line.
type GeneratedLine struct {
	Kind        LineKind
	Name        string
	Category    catalog.Category
	SubCategory catalog.SubCategory
	VAT         catalog.VAT
	UnitPrice   pricing.Money
	AmountUnit  catalog.AmountUnit
	Amount      decimal.Decimal
	Quantity    int
	OrderedAt   time.Time
	Total       pricing.Money
}

// Report is the computed form of an order, ready to serialize.
type Report struct {
	Type        catalog.OrderType
	OrderID     string
	ReferenceID string
	Start       time.Time
	End         time.Time
	OnPremise   bool
	Lines       []GeneratedLine
	Payments    payment.Result
	GrandTotal  pricing.Money
	Discount    Allocation
	ServiceFee  Allocation

	loc *time.Location
}

// IsCancellation reports whether the report only voids an earlier order.
func (r Report) IsCancellation() bool { return r.Type == catalog.OrderCancellation }

// LinesTotal sums the totals of every generated line.
func (r Report) LinesTotal() pricing.Money {
	var sum pricing.Money
	for _, l := range r.Lines {
		sum += l.Total
	}
	return sum
}

// LinesOf returns the generated lines of the given kind.
func (r Report) LinesOf(kind LineKind) []GeneratedLine {
	var out []GeneratedLine
	for _, l := range r.Lines {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Builder turns orders into reports. The zero value uses the default deposit
// price, the default deposit VAT and the Budapest zone.
type Builder struct {
	DepositUnitPrice pricing.Money
	DepositVAT       catalog.VAT
	Location         *time.Location
}

func (b Builder) depositUnit() pricing.Money {
	if b.DepositUnitPrice <= 0 {
		return DefaultDepositUnitPrice
	}
	return b.DepositUnitPrice
}

func (b Builder) depositVAT() catalog.VAT {
	if !b.DepositVAT.Valid() {
		return DefaultDepositVAT
	}
	return b.DepositVAT
}

func (b Builder) location() *time.Location {
	if b.Location == nil {
		return Budapest
	}
	return b.Location
}

// Build computes the report for o. It never modifies o and returns equal
// reports for equal orders.
func (b Builder) Build(o Order) Report {
	r := Report{
		Type:        o.Type(),
		OrderID:     o.ID(),
		ReferenceID: o.ReferenceID(),
		loc:         b.location(),
	}
	if o.IsCancellation() {
		return r
	}
	r.Start = o.Start()
	r.End = o.End()
	r.OnPremise = o.OnPremise()

	items := o.items
	unit := b.depositUnit()
	lines := make([]GeneratedLine, 0, len(items)+4)
	var gross pricing.Money
	for _, it := range items {
		gross += it.GrossTotal()
		lines = append(lines, productLine(it, o.onPremise, unit))
	}
	if dl, ok := depositLine(items, unit, b.depositVAT(), o.end); ok {
		lines = append(lines, dl)
	}

	groups := GroupByVAT(items, o.onPremise, nil)
	r.Discount = AllocateDiscount(groups, o.discount)
	for _, adj := range r.Discount.Adjustments {
		lines = append(lines, adjustmentLine(KindDiscount, DiscountLineName, catalog.SubDiscount, adj, o.end))
	}
	r.ServiceFee = AllocateServiceFee(groups, o.discount, o.serviceFee)
	for _, adj := range r.ServiceFee.Adjustments {
		lines = append(lines, adjustmentLine(KindServiceFee, ServiceFeeLineName, catalog.SubServiceFee, adj, o.end))
	}

	r.Lines = lines
	r.GrandTotal = gross + r.Discount.Target + r.ServiceFee.Target
	r.Payments = payment.Round(o.payments, r.GrandTotal)
	return r
}

func productLine(it LineItem, onPremise bool, depositUnit pricing.Money) GeneratedLine {
	price := it.UnitPrice()
	if it.IsDeposit() {
		price -= depositUnit
	}
	return GeneratedLine{
		Kind:        KindProduct,
		Name:        it.Name(),
		Category:    it.Category(),
		SubCategory: it.SubCategory(),
		VAT:         it.EffectiveVAT(onPremise),
		UnitPrice:   price,
		AmountUnit:  it.AmountUnit(),
		Amount:      it.Amount(),
		Quantity:    it.Quantity(),
		OrderedAt:   it.OrderedAt(),
		Total:       it.LineTotal(depositUnit),
	}
}

func adjustmentLine(kind LineKind, name string, sub catalog.SubCategory, adj Adjustment, at time.Time) GeneratedLine {
	return GeneratedLine{
		Kind:        kind,
		Name:        name,
		Category:    catalog.CategoryOther,
		SubCategory: sub,
		VAT:         adj.VAT,
		UnitPrice:   adj.Amount,
		AmountUnit:  catalog.UnitPiece,
		Amount:      decimal.NewFromInt(1),
		Quantity:    1,
		OrderedAt:   at,
		Total:       adj.Amount,
	}
}
