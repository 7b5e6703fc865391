package generate

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Totals are the exact aggregates of a set of line items. They are the ground
// truth every downstream observation is compared against.
type Totals struct {
	Records   int
	Cost      decimal.Decimal
	Usage     decimal.Decimal
	ByType    map[string]decimal.Decimal
	ByProduct map[string]decimal.Decimal
}

// Summarize adds up items without rounding.
func Summarize(items []LineItem) Totals {
	t := Totals{
		Cost:      decimal.Zero,
		Usage:     decimal.Zero,
		ByType:    map[string]decimal.Decimal{},
		ByProduct: map[string]decimal.Decimal{},
	}
	for _, li := range items {
		t.Records++
		t.Cost = t.Cost.Add(li.Cost)
		t.Usage = t.Usage.Add(li.UsageAmount)
		t.ByType[li.ResourceType] = t.ByType[li.ResourceType].Add(li.Cost)
		t.ByProduct[li.ProductCode] = t.ByProduct[li.ProductCode].Add(li.Cost)
	}
	return t
}

// Types lists the resource types present, sorted.
func (t Totals) Types() []string {
	types := make([]string, 0, len(t.ByType))
	for k := range t.ByType {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}
