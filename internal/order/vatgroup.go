package order

import (
	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// VATGroup holds the billable items sharing one effective VAT rate.
type VATGroup struct {
	VAT   catalog.VAT
	Items []LineItem
}

// Base is the sum of the group's gross line totals.
func (g VATGroup) Base() pricing.Money {
	var sum pricing.Money
	for _, it := range g.Items {
		sum += it.GrossTotal()
	}
	return sum
}

// GroupByVAT partitions items by effective VAT rate. Deposit items and
// discount or service fee adjustments never take part. include narrows the
// selection further and may be nil. Groups keep first-occurrence order.
func GroupByVAT(items []LineItem, onPremise bool, include func(LineItem) bool) []VATGroup {
	var groups []VATGroup
	index := make(map[catalog.VAT]int)
	for _, it := range items {
		if !it.billable() {
			continue
		}
		if include != nil && !include(it) {
			continue
		}
		vat := it.EffectiveVAT(onPremise)
		pos, ok := index[vat]
		if !ok {
			pos = len(groups)
			index[vat] = pos
			groups = append(groups, VATGroup{VAT: vat})
		}
		groups[pos].Items = append(groups[pos].Items, it)
	}
	return groups
}

func totalBase(groups []VATGroup) pricing.Money {
	var sum pricing.Money
	for _, g := range groups {
		sum += g.Base()
	}
	return sum
}
