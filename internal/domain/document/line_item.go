package document

import (
	"math"
	"strings"
)

// LineItem is one row of a quote, order or invoice.
// TaxRatePct and DiscountPct are optional; nil selects the document default.
type LineItem struct {
	Position    int      `json:"position"`
	Description string   `json:"description"`
	Qty         float64  `json:"qty"`
	UnitMinor   int64    `json:"unit_minor"`
	TaxRatePct  *float64 `json:"tax_rate_pct,omitempty"`
	DiscountPct *float64 `json:"discount_pct,omitempty"`
}

// NewLineItem creates a line item without per-line rates
func NewLineItem(description string, qty float64, unitMinor int64) LineItem {
	return LineItem{
		Description: strings.TrimSpace(description),
		Qty:         qty,
		UnitMinor:   unitMinor,
	}
}

// WithTaxRate returns a copy of the item with its own tax rate
func (i LineItem) WithTaxRate(pct float64) LineItem {
	i.TaxRatePct = &pct
	return i
}

// WithDiscount returns a copy of the item with its own discount
func (i LineItem) WithDiscount(pct float64) LineItem {
	i.DiscountPct = &pct
	return i
}

// EffectiveTaxPct returns the line's own tax rate if set, else the default
func (i LineItem) EffectiveTaxPct(defaults Defaults) float64 {
	if i.TaxRatePct != nil {
		return finiteOrZero(*i.TaxRatePct)
	}
	return finiteOrZero(defaults.TaxPct)
}

// EffectiveDiscountPct returns the line's own discount if set, else the default
func (i LineItem) EffectiveDiscountPct(defaults Defaults) float64 {
	if i.DiscountPct != nil {
		return finiteOrZero(*i.DiscountPct)
	}
	return finiteOrZero(defaults.DiscountPct)
}

// finiteOrZero coalesces NaN and infinities to 0
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
