package pricing

import "github.com/shopspring/decimal"

// Money represents a monetary value stored in minor units (whole forints).
type Money = int64

var hundred = decimal.NewFromInt(100)

// RoundToUnit rounds x to the nearest whole minor unit, halves away from zero.
func RoundToUnit(x decimal.Decimal) Money {
	return x.Round(0).IntPart()
}

// FloorToUnit rounds x down to a whole minor unit.
func FloorToUnit(x decimal.Decimal) Money {
	return x.Floor().IntPart()
}

// Times returns price × qty as an exact decimal.
func Times(price Money, qty int) decimal.Decimal {
	return decimal.NewFromInt(price).Mul(decimal.NewFromInt(int64(qty)))
}

// Gross is the rounded line value of qty units at price.
func Gross(price Money, qty int) Money {
	return RoundToUnit(Times(price, qty))
}

// DiscountFactor returns 1 - percent/100.
func DiscountFactor(percent int) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(percent)).Div(hundred))
}

// PercentFactor returns percent/100.
func PercentFactor(percent int) decimal.Decimal {
	return decimal.NewFromInt(int64(percent)).Div(hundred)
}

// Discounted returns base reduced by percent, rounded to a whole unit.
func Discounted(base Money, percent int) Money {
	if percent == 0 {
		return base
	}
	return RoundToUnit(decimal.NewFromInt(base).Mul(DiscountFactor(percent)))
}

// RoundToStep rounds amount to the nearest multiple of step using the same
// half-away-from-zero law as RoundToUnit.
func RoundToStep(amount Money, step int64) Money {
	if step <= 1 {
		return amount
	}
	s := decimal.NewFromInt(step)
	return decimal.NewFromInt(amount).Div(s).Round(0).Mul(s).IntPart()
}

// Sum adds the provided amounts.
func Sum(amounts []Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}
