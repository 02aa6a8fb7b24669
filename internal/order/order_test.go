package order_test

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/order"
	"github.com/noah-isme/ntak-rms/internal/payment"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

var (
	orderStart = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	orderEnd   = time.Date(2024, 1, 15, 10, 45, 0, 0, time.UTC)
)

func food(t *testing.T, name string, vat catalog.VAT, price pricing.Money, qty int) order.LineItem {
	t.Helper()
	return mustItem(t, order.ItemParams{
		Name:        name,
		Category:    catalog.CategoryFood,
		SubCategory: catalog.SubMainCourse,
		VAT:         vat,
		UnitPrice:   price,
		AmountUnit:  catalog.UnitPiece,
		Amount:      decimal.NewFromInt(int64(qty)),
		Quantity:    qty,
		OrderedAt:   orderStart,
	})
}

func mustItem(t *testing.T, p order.ItemParams) order.LineItem {
	t.Helper()
	it, err := order.NewLineItem(p)
	require.NoError(t, err)
	return it
}

func normalParams(items []order.LineItem, total pricing.Money) order.Params {
	return order.Params{
		Type:      catalog.OrderNormal,
		ID:        "ord-1",
		Items:     items,
		Start:     orderStart,
		End:       orderEnd,
		OnPremise: true,
		Payments:  []payment.Line{{Method: catalog.PaymentBankCard, Amount: total}},
	}
}

func mustOrder(t *testing.T, p order.Params) order.Order {
	t.Helper()
	o, err := order.New(p)
	require.NoError(t, err)
	return o
}

func sumLines(lines []order.GeneratedLine) pricing.Money {
	var sum pricing.Money
	for _, l := range lines {
		sum += l.Total
	}
	return sum
}

func TestBuildWithoutAdjustments(t *testing.T) {
	items := []order.LineItem{
		food(t, "Gulyás", catalog.VAT27, 1000, 2),
		food(t, "Lángos", catalog.VAT27, 1001, 2),
	}
	report := order.Builder{}.Build(mustOrder(t, normalParams(items, 4002)))

	require.EqualValues(t, 4002, report.GrandTotal)
	require.EqualValues(t, 4002, report.LinesTotal())
	require.Len(t, report.Lines, 2)
	require.Empty(t, report.LinesOf(order.KindDiscount))
	require.Empty(t, report.LinesOf(order.KindServiceFee))
	require.Len(t, report.Payments.Lines, 1)
	require.EqualValues(t, 4002, report.Payments.Total())
}

func TestBuildDiscountAndServiceFee(t *testing.T) {
	items := []order.LineItem{
		food(t, "Rántott hús", catalog.VAT27, 400, 1),
		food(t, "Palacsinta", catalog.VAT5, 557, 1),
	}
	p := normalParams(items, 842)
	p.DiscountPercent = 20
	p.ServiceFeePercent = 10
	report := order.Builder{}.Build(mustOrder(t, p))

	discounts := report.LinesOf(order.KindDiscount)
	require.Len(t, discounts, 2)
	require.EqualValues(t, -80, discounts[0].Total)
	require.Equal(t, catalog.VAT27, discounts[0].VAT)
	require.EqualValues(t, -111, discounts[1].Total)
	require.EqualValues(t, -191, report.Discount.Target)
	require.Equal(t, order.DiscountLineName, discounts[0].Name)
	require.Equal(t, catalog.SubDiscount, discounts[0].SubCategory)

	fees := report.LinesOf(order.KindServiceFee)
	require.Len(t, fees, 2)
	require.EqualValues(t, 32, fees[0].Total)
	require.EqualValues(t, 44, fees[1].Total)
	require.EqualValues(t, 44, fees[1].UnitPrice)
	require.Equal(t, catalog.VAT5, fees[1].VAT)
	require.EqualValues(t, 76, report.ServiceFee.Target)
	require.EqualValues(t, -1, report.ServiceFee.Delta)
	require.EqualValues(t, 76, sumLines(fees))

	require.EqualValues(t, 842, report.GrandTotal)
	require.Equal(t, report.GrandTotal, report.LinesTotal())
}

func TestDiscountReconciledToGlobalTarget(t *testing.T) {
	items := []order.LineItem{
		food(t, "Pogácsa", catalog.VAT27, 5, 1),
		food(t, "Kifli", catalog.VAT5, 5, 1),
	}
	p := normalParams(items, 9)
	p.DiscountPercent = 10
	report := order.Builder{}.Build(mustOrder(t, p))

	discounts := report.LinesOf(order.KindDiscount)
	require.Len(t, discounts, 1, "zero per-group discounts are dropped")
	require.Equal(t, catalog.VAT5, discounts[0].VAT)
	require.EqualValues(t, -1, discounts[0].Total)
	require.EqualValues(t, -1, report.Discount.Delta)
	require.EqualValues(t, 9, report.GrandTotal)
}

func TestZeroDiscountSuppressed(t *testing.T) {
	p := normalParams([]order.LineItem{food(t, "Kifli", catalog.VAT5, 1, 1)}, 1)
	p.DiscountPercent = 10
	report := order.Builder{}.Build(mustOrder(t, p))
	require.Empty(t, report.LinesOf(order.KindDiscount))
	require.EqualValues(t, 1, report.GrandTotal)
}

func TestFullDiscount(t *testing.T) {
	p := normalParams([]order.LineItem{food(t, "Leves", catalog.VAT27, 1290, 1)}, 0)
	p.DiscountPercent = 100
	p.ServiceFeePercent = 12
	report := order.Builder{}.Build(mustOrder(t, p))
	require.EqualValues(t, -1290, report.Discount.Target)
	require.Empty(t, report.LinesOf(order.KindServiceFee))
	require.EqualValues(t, 0, report.GrandTotal)
	require.EqualValues(t, 0, report.LinesTotal())
}

func TestZeroServiceFeeGroupSuppressed(t *testing.T) {
	items := []order.LineItem{
		food(t, "Kifli", catalog.VAT5, 1, 1),
		food(t, "Pörkölt", catalog.VAT27, 1000, 1),
	}
	p := normalParams(items, 1101)
	p.ServiceFeePercent = 10
	report := order.Builder{}.Build(mustOrder(t, p))

	fees := report.LinesOf(order.KindServiceFee)
	require.Len(t, fees, 1)
	require.Equal(t, catalog.VAT27, fees[0].VAT)
	require.EqualValues(t, 100, fees[0].Total)
	require.EqualValues(t, 100, report.ServiceFee.Target)
	require.EqualValues(t, 1101, report.GrandTotal)
	require.Equal(t, report.GrandTotal, report.LinesTotal())
}

func TestDepositLine(t *testing.T) {
	cola := mustItem(t, order.ItemParams{
		Name:        "Cola 0,5",
		Category:    catalog.CategoryPackagedSoftDrink,
		SubCategory: catalog.SubSparklingSoda,
		VAT:         catalog.VAT27,
		UnitPrice:   450,
		AmountUnit:  catalog.UnitLiter,
		Amount:      decimal.RequireFromString("1"),
		Quantity:    2,
		OrderedAt:   orderStart,
		IsDeposit:   true,
	})
	items := []order.LineItem{cola, food(t, "Burger", catalog.VAT27, 1000, 1)}
	p := normalParams(items, 1800)
	p.DiscountPercent = 10
	report := order.Builder{}.Build(mustOrder(t, p))

	products := report.LinesOf(order.KindProduct)
	require.EqualValues(t, 400, products[0].UnitPrice)
	require.EqualValues(t, 800, products[0].Total)

	deposits := report.LinesOf(order.KindDeposit)
	require.Len(t, deposits, 1)
	require.Equal(t, order.DepositLineName, deposits[0].Name)
	require.Equal(t, catalog.SubEcoPackaging, deposits[0].SubCategory)
	require.Equal(t, catalog.VAT0, deposits[0].VAT)
	require.EqualValues(t, 50, deposits[0].UnitPrice)
	require.Equal(t, 2, deposits[0].Quantity)
	require.EqualValues(t, 100, deposits[0].Total)

	discounts := report.LinesOf(order.KindDiscount)
	require.Len(t, discounts, 1, "deposit items stay out of the discount base")
	require.EqualValues(t, -100, discounts[0].Total)
	require.EqualValues(t, 1800, report.GrandTotal)
	require.EqualValues(t, 1800, report.LinesTotal())
}

func TestDepositConfiguration(t *testing.T) {
	cup := mustItem(t, order.ItemParams{
		Name: "Limonádé", Category: catalog.CategoryOnPremiseSoftDrink, SubCategory: catalog.SubLemonade,
		VAT: catalog.VAT5, UnitPrice: 990, AmountUnit: catalog.UnitPiece, Amount: decimal.NewFromInt(3),
		Quantity: 3, OrderedAt: orderStart, IsDeposit: true,
	})
	b := order.Builder{DepositUnitPrice: 100, DepositVAT: catalog.VATExempt}
	report := b.Build(mustOrder(t, normalParams([]order.LineItem{cup}, 2970)))

	deposit := report.LinesOf(order.KindDeposit)[0]
	require.EqualValues(t, 100, deposit.UnitPrice)
	require.Equal(t, catalog.VATExempt, deposit.VAT)
	require.EqualValues(t, 2670, report.LinesOf(order.KindProduct)[0].Total)
	require.EqualValues(t, 2970, report.GrandTotal)
}

func TestTakeAwayDrinkVATOverride(t *testing.T) {
	coffee := mustItem(t, order.ItemParams{
		Name: "Espresso", Category: catalog.CategoryOnPremiseSoftDrink, SubCategory: catalog.SubCoffee,
		VAT: catalog.VAT5, UnitPrice: 590, AmountUnit: catalog.UnitPiece, Amount: decimal.NewFromInt(1),
		Quantity: 1, OrderedAt: orderStart,
	})
	require.Equal(t, catalog.VAT27, coffee.EffectiveVAT(false))
	require.Equal(t, catalog.VAT5, coffee.EffectiveVAT(true))

	p := normalParams([]order.LineItem{coffee}, 590)
	p.OnPremise = false
	p.DiscountPercent = 50
	o := mustOrder(t, p)
	report := order.Builder{}.Build(o)
	require.Equal(t, catalog.VAT27, report.Lines[0].VAT)
	require.Equal(t, catalog.VAT27, report.LinesOf(order.KindDiscount)[0].VAT)
	require.Equal(t, catalog.VAT5, o.Items()[0].VAT(), "input item keeps its configured rate")

	p.OnPremise = true
	require.Equal(t, catalog.VAT5, order.Builder{}.Build(mustOrder(t, p)).Lines[0].VAT)
}

func TestAdjustmentItemsExcludedFromGroups(t *testing.T) {
	manual := mustItem(t, order.ItemParams{
		Name: "Törzsvendég", Category: catalog.CategoryOther, SubCategory: catalog.SubDiscount,
		VAT: catalog.VAT27, UnitPrice: -100, AmountUnit: catalog.UnitPiece, Amount: decimal.NewFromInt(1),
		Quantity: 1, OrderedAt: orderStart,
	})
	items := []order.LineItem{food(t, "Pörkölt", catalog.VAT27, 2000, 1), manual}
	groups := order.GroupByVAT(items, true, nil)
	require.Len(t, groups, 1)
	require.EqualValues(t, 2000, groups[0].Base())

	p := normalParams(items, 1900)
	p.ServiceFeePercent = 10
	report := order.Builder{}.Build(mustOrder(t, p))
	require.EqualValues(t, 200, report.ServiceFee.Target)
	require.EqualValues(t, 2100, report.GrandTotal)
	require.Equal(t, report.GrandTotal, report.LinesTotal())
}

func TestGroupByVATKeepsFirstOccurrenceOrder(t *testing.T) {
	items := []order.LineItem{
		food(t, "a", catalog.VAT18, 10, 1),
		food(t, "b", catalog.VAT5, 10, 1),
		food(t, "c", catalog.VAT18, 10, 2),
		food(t, "d", catalog.VAT27, 10, 1),
	}
	groups := order.GroupByVAT(items, true, nil)
	require.Len(t, groups, 3)
	require.Equal(t, []catalog.VAT{catalog.VAT18, catalog.VAT5, catalog.VAT27},
		[]catalog.VAT{groups[0].VAT, groups[1].VAT, groups[2].VAT})
	require.EqualValues(t, 30, groups[0].Base())

	only5 := order.GroupByVAT(items, true, func(it order.LineItem) bool { return it.VAT() == catalog.VAT5 })
	require.Len(t, only5, 1)
}

func TestCancellationReport(t *testing.T) {
	o := mustOrder(t, order.Params{
		Type:        catalog.OrderCancellation,
		ID:          "ord-2",
		ReferenceID: "ord-1",
		Items:       []order.LineItem{food(t, "ignored", catalog.VAT27, 100, 1)},
	})
	require.Empty(t, o.Items())
	report := order.Builder{}.Build(o)
	require.Empty(t, report.Lines)
	require.Empty(t, report.Payments.Lines)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Equal(t, "SZTORNO", payload["rendelesBesorolasa"])
	require.Equal(t, "ord-2", payload["rmsRendelesAzonosito"])
	require.Equal(t, "ord-1", payload["hivatkozottRendelesOsszesito"])
	for _, key := range []string{"targynap", "rendelesKezdete", "rendelesVege", "helybenFogyasztott", "osszesitett", "fizetesiInformaciok", "rendelesTetelek"} {
		v, ok := payload[key]
		require.True(t, ok, "key %s must be present", key)
		require.Nil(t, v, "key %s must be null", key)
	}
}

func TestValidation(t *testing.T) {
	item := food(t, "Leves", catalog.VAT27, 100, 1)
	base := normalParams([]order.LineItem{item}, 100)
	cases := []struct {
		name   string
		mutate func(*order.Params)
		want   error
	}{
		{"missing id", func(p *order.Params) { p.ID = "" }, order.ErrMissingID},
		{"unknown type", func(p *order.Params) { p.Type = "STORNO" }, order.ErrInvalidType},
		{"correction without reference", func(p *order.Params) { p.Type = catalog.OrderCorrection }, order.ErrMissingReferenceID},
		{"cancellation without reference", func(p *order.Params) { p.Type = catalog.OrderCancellation }, order.ErrMissingReferenceID},
		{"no items", func(p *order.Params) { p.Items = nil }, order.ErrMissingItems},
		{"no start", func(p *order.Params) { p.Start = time.Time{} }, order.ErrMissingWindow},
		{"no end", func(p *order.Params) { p.End = time.Time{} }, order.ErrMissingWindow},
		{"end before start", func(p *order.Params) { p.Start, p.End = p.End, p.Start }, order.ErrInvalidWindow},
		{"no payments", func(p *order.Params) { p.Payments = nil }, order.ErrMissingPayments},
		{"rounding tender", func(p *order.Params) { p.Payments[0].Method = catalog.PaymentRounding }, order.ErrInvalidPayment},
		{"discount over 100", func(p *order.Params) { p.DiscountPercent = 101 }, order.ErrInvalidDiscount},
		{"negative discount", func(p *order.Params) { p.DiscountPercent = -1 }, order.ErrInvalidDiscount},
		{"negative fee", func(p *order.Params) { p.ServiceFeePercent = -5 }, order.ErrInvalidServiceFee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			p.Payments = append([]payment.Line(nil), base.Payments...)
			tc.mutate(&p)
			_, err := order.New(p)
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("correction with reference", func(t *testing.T) {
		p := base
		p.Type = catalog.OrderCorrection
		p.ReferenceID = "ord-0"
		_, err := order.New(p)
		require.NoError(t, err)
	})

	t.Run("correction discount bounds", func(t *testing.T) {
		p := base
		p.Type = catalog.OrderCorrection
		p.ReferenceID = "ord-0"
		p.DiscountPercent = 150
		_, err := order.New(p)
		require.NoError(t, err)

		p.DiscountPercent = -1
		_, err = order.New(p)
		require.ErrorIs(t, err, order.ErrInvalidDiscount)
	})
}

func TestNewLineItemValidation(t *testing.T) {
	valid := order.ItemParams{
		Name: "Sör", Category: catalog.CategoryAlcoholicDrink, SubCategory: catalog.SubBeer, VAT: catalog.VAT27,
		UnitPrice: 890, AmountUnit: catalog.UnitLiter, Amount: decimal.RequireFromString("0.5"), Quantity: 1,
	}
	_, err := order.NewLineItem(valid)
	require.NoError(t, err)

	p := valid
	p.Quantity = 0
	_, err = order.NewLineItem(p)
	require.ErrorIs(t, err, order.ErrInvalidQuantity)

	p = valid
	p.Amount = decimal.NewFromInt(-1)
	_, err = order.NewLineItem(p)
	require.ErrorIs(t, err, order.ErrInvalidAmount)

	p = valid
	p.SubCategory = catalog.SubCoffee
	_, err = order.NewLineItem(p)
	require.ErrorIs(t, err, order.ErrInvalidCode)

	p = valid
	p.VAT = "F_99"
	_, err = order.NewLineItem(p)
	require.ErrorIs(t, err, order.ErrInvalidCode)
}

func TestOrderCopiesInputs(t *testing.T) {
	items := []order.LineItem{food(t, "Leves", catalog.VAT27, 100, 1)}
	p := normalParams(items, 100)
	o := mustOrder(t, p)
	items[0] = food(t, "Más", catalog.VAT5, 999, 9)
	p.Payments[0].Amount = 1
	require.Equal(t, "Leves", o.Items()[0].Name())
	require.EqualValues(t, 100, o.Payments()[0].Amount)
}

func TestWirePayload(t *testing.T) {
	wine := mustItem(t, order.ItemParams{
		Name: "Fröccs", Category: catalog.CategoryAlcoholicDrink, SubCategory: catalog.SubWine, VAT: catalog.VAT27,
		UnitPrice: 333, AmountUnit: catalog.UnitLiter, Amount: decimal.RequireFromString("0.333"), Quantity: 3,
		OrderedAt: time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
	})
	p := normalParams([]order.LineItem{wine}, 999)
	p.End = time.Date(2024, 7, 1, 22, 30, 0, 0, time.UTC)
	p.Payments = []payment.Line{{Method: catalog.PaymentCashHUF, Amount: 999}}
	report := order.Builder{}.Build(mustOrder(t, p))

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	var payload struct {
		Type        string  `json:"rendelesBesorolasa"`
		ReferenceID *string `json:"hivatkozottRendelesOsszesito"`
		BusinessDay string  `json:"targynap"`
		Start       string  `json:"rendelesKezdete"`
		End         string  `json:"rendelesVege"`
		OnPremise   bool    `json:"helybenFogyasztott"`
		Aggregated  *bool   `json:"osszesitett"`
		PaymentInfo struct {
			GrandTotal int64            `json:"rendelesVegosszegeHUF"`
			Methods    []map[string]any `json:"fizetesiModok"`
		} `json:"fizetesiInformaciok"`
		Lines []map[string]any `json:"rendelesTetelek"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))

	require.Equal(t, "NORMAL", payload.Type)
	require.Nil(t, payload.ReferenceID)
	require.Equal(t, "2024-07-02", payload.BusinessDay)
	require.Equal(t, "2024-01-15T11:00:00+01:00", payload.Start)
	require.Equal(t, "2024-07-02T00:30:00+02:00", payload.End)
	require.True(t, payload.OnPremise)
	require.NotNil(t, payload.Aggregated)
	require.False(t, *payload.Aggregated)
	require.EqualValues(t, 999, payload.PaymentInfo.GrandTotal)
	require.Equal(t, []map[string]any{
		{"fizetesiMod": "KESZPENZHUF", "fizetettOsszegHUF": float64(1000)},
		{"fizetesiMod": "KEREKITES", "fizetettOsszegHUF": float64(-1)},
	}, payload.PaymentInfo.Methods)

	require.Len(t, payload.Lines, 1)
	line := payload.Lines[0]
	require.Len(t, line, 10)
	require.Equal(t, "Fröccs", line["megnevezes"])
	require.Equal(t, "ALKOHOLOSITAL", line["fokategoria"])
	require.Equal(t, "BOR", line["alkategoria"])
	require.Equal(t, "C_27", line["afaKategoria"])
	require.EqualValues(t, 333, line["bruttoEgysegar"])
	require.Equal(t, "LITER", line["mennyisegiEgyseg"])
	require.EqualValues(t, 0.33, line["mennyiseg"])
	require.EqualValues(t, 3, line["tetelszam"])
	require.Equal(t, "2024-07-01T12:00:00+02:00", line["rendelesIdopontja"])
	require.EqualValues(t, 999, line["tetelOsszesito"])
}

func TestBuildIsIdempotent(t *testing.T) {
	items := []order.LineItem{
		food(t, "a", catalog.VAT27, 1234, 3),
		food(t, "b", catalog.VAT5, 777, 1),
	}
	p := normalParams(items, 4479)
	p.DiscountPercent = 15
	p.ServiceFeePercent = 12
	o := mustOrder(t, p)
	b := order.Builder{}

	first, err := json.Marshal(b.Build(o))
	require.NoError(t, err)
	second, err := json.Marshal(b.Build(o))
	require.NoError(t, err)
	require.JSONEq(t, string(first), string(second))
	require.Equal(t, order.SummaryOf(b.Build(o)), order.SummaryOf(b.Build(o)))
}

func TestParallelBuilds(t *testing.T) {
	items := []order.LineItem{
		food(t, "a", catalog.VAT27, 1500, 2),
		mustItem(t, order.ItemParams{
			Name: "Tea", Category: catalog.CategoryOnPremiseSoftDrink, SubCategory: catalog.SubTeaHotChocolate,
			VAT: catalog.VAT5, UnitPrice: 650, AmountUnit: catalog.UnitPiece, Amount: decimal.NewFromInt(2),
			Quantity: 2, OrderedAt: orderStart,
		}),
	}
	onSite := normalParams(items, 4300)
	takeAway := normalParams(items, 4300)
	takeAway.ID = "ord-takeaway"
	takeAway.OnPremise = false
	orders := []order.Order{mustOrder(t, onSite), mustOrder(t, takeAway)}

	want := make([][]byte, len(orders))
	for i, o := range orders {
		raw, err := json.Marshal(order.Builder{}.Build(o))
		require.NoError(t, err)
		want[i] = raw
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for n := 0; n < 32; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			i := n % len(orders)
			raw, err := json.Marshal(order.Builder{}.Build(orders[i]))
			if err != nil {
				errs <- err
				return
			}
			if string(raw) != string(want[i]) {
				errs <- errors.New("parallel build diverged")
			}
		}(n)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

// halfUp divides a non-negative numerator by 100 rounding halves up.
func halfUp(x int64) int64 { return (x + 50) / 100 }

func TestReconciliationProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(20240115))
	vats := catalog.VATs()
	for iter := 0; iter < 500; iter++ {
		groupCount := 1 + rng.Intn(5)
		perm := rng.Perm(len(vats))[:groupCount]
		var items []order.LineItem
		var base pricing.Money
		for _, idx := range perm {
			for n := 1 + rng.Intn(4); n > 0; n-- {
				price := pricing.Money(50 + rng.Intn(20000))
				qty := 1 + rng.Intn(5)
				deposit := rng.Intn(6) == 0
				items = append(items, mustItem(t, order.ItemParams{
					Name: "item", Category: catalog.CategoryFood, SubCategory: catalog.SubSnack, VAT: vats[idx],
					UnitPrice: price, AmountUnit: catalog.UnitPiece, Amount: decimal.NewFromInt(int64(qty)),
					Quantity: qty, OrderedAt: orderStart, IsDeposit: deposit,
				}))
				if !deposit {
					base += price * pricing.Money(qty)
				}
			}
		}
		discount := rng.Intn(101)
		fee := rng.Intn(51)
		p := normalParams(items, 0)
		p.DiscountPercent = discount
		p.ServiceFeePercent = fee
		p.Payments = []payment.Line{{Method: catalog.PaymentCashHUF, Amount: 1}}
		report := order.Builder{}.Build(mustOrder(t, p))

		require.Equal(t, report.GrandTotal, report.LinesTotal(), "iteration %d", iter)

		discounted := halfUp(base * int64(100-discount))
		wantDiscount := discounted - base
		if discount == 0 {
			wantDiscount = 0
		}
		require.Equal(t, wantDiscount, sumLines(report.LinesOf(order.KindDiscount)), "discount identity, iteration %d", iter)

		wantFee := discounted * int64(fee) / 100
		require.Equal(t, wantFee, sumLines(report.LinesOf(order.KindServiceFee)), "fee identity, iteration %d", iter)

		for _, l := range report.Lines {
			if l.Kind == order.KindDiscount || l.Kind == order.KindServiceFee {
				require.NotZero(t, l.Total, "iteration %d", iter)
			}
		}
		require.LessOrEqual(t, len(report.LinesOf(order.KindDiscount)), groupCount)
		require.LessOrEqual(t, len(report.LinesOf(order.KindServiceFee)), groupCount)

		cash := payment.Round([]payment.Line{{Method: catalog.PaymentCashHUF, Amount: report.GrandTotal}}, report.GrandTotal)
		require.Equal(t, report.GrandTotal, cash.Total())
	}
}
