package document

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Defaults holds the document-level rates used by lines without their own
type Defaults struct {
	TaxPct      float64 `json:"tax_pct"`
	DiscountPct float64 `json:"discount_pct"`
}

// Totals is the derived aggregate of a document's lines in minor units.
// TotalMinor is SubtotalMinor + TaxMinor unless an int64 bound saturates.
type Totals struct {
	SubtotalMinor int64 `json:"subtotal_minor"`
	TaxMinor      int64 `json:"tax_minor"`
	TotalMinor    int64 `json:"total_minor"`
}

// LineTotals is the computed result for a single line
type LineTotals struct {
	SubtotalMinor        int64   `json:"subtotal_minor"`
	TaxMinor             int64   `json:"tax_minor"`
	TotalMinor           int64   `json:"total_minor"`
	EffectiveTaxPct      float64 `json:"effective_tax_pct"`
	EffectiveDiscountPct float64 `json:"effective_discount_pct"`
}

// CalculateLine computes subtotal and tax for one line.
//
//	subtotal = round(qty * unitMinor * (100 - discount) / 100)
//	tax      = round(subtotal * taxRate / 100)
//
// Rounding is half away from zero at each multiplication boundary.
// Amounts outside the int64 range saturate at its bounds.
func CalculateLine(item LineItem, defaults Defaults) LineTotals {
	discountPct := item.EffectiveDiscountPct(defaults)
	taxPct := item.EffectiveTaxPct(defaults)

	gross := decimal.NewFromFloat(finiteOrZero(item.Qty)).Mul(decimal.NewFromInt(item.UnitMinor))
	subtotal := gross.Mul(hundred.Sub(decimal.NewFromFloat(discountPct))).Div(hundred).Round(0)
	tax := subtotal.Mul(decimal.NewFromFloat(taxPct)).Div(hundred).Round(0)

	sub := clampMinor(subtotal)
	tx := clampMinor(tax)
	return LineTotals{
		SubtotalMinor:        sub,
		TaxMinor:             tx,
		TotalMinor:           addMinor(sub, tx),
		EffectiveTaxPct:      taxPct,
		EffectiveDiscountPct: discountPct,
	}
}

// CalculateBreakdown computes per-line results and the document totals
func CalculateBreakdown(items []LineItem, defaults Defaults) (Totals, []LineTotals) {
	lines := make([]LineTotals, len(items))
	var totals Totals
	for i, item := range items {
		lt := CalculateLine(item, defaults)
		lines[i] = lt
		totals.SubtotalMinor = addMinor(totals.SubtotalMinor, lt.SubtotalMinor)
		totals.TaxMinor = addMinor(totals.TaxMinor, lt.TaxMinor)
	}
	totals.TotalMinor = addMinor(totals.SubtotalMinor, totals.TaxMinor)
	return totals, lines
}

// CalculateTotals computes the document totals. An empty list yields zeros.
func CalculateTotals(items []LineItem, defaults Defaults) Totals {
	totals, _ := CalculateBreakdown(items, defaults)
	return totals
}

func clampMinor(d decimal.Decimal) int64 {
	switch {
	case d.GreaterThan(maxMinor):
		return math.MaxInt64
	case d.LessThan(minMinor):
		return math.MinInt64
	}
	return d.IntPart()
}

// addMinor adds without wrapping past the int64 bounds
func addMinor(a, b int64) int64 {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt64
	}
	return sum
}
