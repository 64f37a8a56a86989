// Package document contains the Document bounded context.
// Quotes, orders and invoices share one aggregate: a header with seller and
// buyer parties plus an ordered list of line items whose totals are always
// computed in integer minor currency units.
package document
