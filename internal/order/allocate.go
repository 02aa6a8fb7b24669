package order

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// Adjustment is one derived amount attributed to a VAT group.
type Adjustment struct {
	VAT    catalog.VAT
	Amount pricing.Money
}

// Allocation is the outcome of spreading a target amount over VAT groups.
// Delta is what reconciliation added to the last group.
type Allocation struct {
	Target      pricing.Money
	Delta       pricing.Money
	Adjustments []Adjustment
}

// Sum returns the total of the emitted adjustments.
func (a Allocation) Sum() pricing.Money {
	var sum pricing.Money
	for _, adj := range a.Adjustments {
		sum += adj.Amount
	}
	return sum
}

// allocate reconciles per-group amounts to target and drops zero entries.
func allocate(groups []VATGroup, amounts []pricing.Money, target pricing.Money) Allocation {
	adjusted, delta := pricing.Reconcile(amounts, target)
	out := Allocation{Target: target}
	if len(adjusted) == 0 {
		return out
	}
	out.Delta = delta
	for i, amount := range adjusted {
		if amount == 0 {
			continue
		}
		out.Adjustments = append(out.Adjustments, Adjustment{VAT: groups[i].VAT, Amount: amount})
	}
	return out
}

// AllocateDiscount derives one discount adjustment per VAT group so that the
// adjustments sum to the rounded discounted total minus the full total.
func AllocateDiscount(groups []VATGroup, percent int) Allocation {
	if percent == 0 || len(groups) == 0 {
		return Allocation{}
	}
	diffs := make([]pricing.Money, len(groups))
	for i, g := range groups {
		base := g.Base()
		diffs[i] = pricing.Discounted(base, percent) - base
	}
	full := totalBase(groups)
	return allocate(groups, diffs, pricing.Discounted(full, percent)-full)
}

// ServiceFeeTarget is the floor of the discounted fee base times the fee rate.
func ServiceFeeTarget(groups []VATGroup, discountPercent, feePercent int) pricing.Money {
	if feePercent == 0 {
		return 0
	}
	discounted := pricing.Discounted(totalBase(groups), discountPercent)
	return pricing.FloorToUnit(decimal.NewFromInt(discounted).Mul(pricing.PercentFactor(feePercent)))
}

// AllocateServiceFee derives one service fee adjustment per VAT group,
// reconciled to ServiceFeeTarget.
func AllocateServiceFee(groups []VATGroup, discountPercent, feePercent int) Allocation {
	if feePercent == 0 || len(groups) == 0 {
		return Allocation{}
	}
	factor := pricing.DiscountFactor(discountPercent).Mul(pricing.PercentFactor(feePercent))
	fees := make([]pricing.Money, len(groups))
	for i, g := range groups {
		fees[i] = pricing.RoundToUnit(decimal.NewFromInt(g.Base()).Mul(factor))
	}
	return allocate(groups, fees, ServiceFeeTarget(groups, discountPercent, feePercent))
}
