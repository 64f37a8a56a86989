package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	DKK Currency = "DKK" // Danish Krone (default)
	EUR Currency = "EUR" // Euro
	SEK Currency = "SEK" // Swedish Krona
	NOK Currency = "NOK" // Norwegian Krone
	USD Currency = "USD" // US Dollar
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = DKK

// DefaultLocale is the locale used for display formatting
const DefaultLocale = "da-DK"

// ParseCurrency validates an ISO 4217 code. Empty input yields DefaultCurrency.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// Money is an amount in minor currency units (øre, cents).
// It is immutable - all operations return new Money instances
type Money struct {
	minor    int64
	currency Currency
}

// NewMoney creates a new Money with the specified minor amount and currency
func NewMoney(minor int64, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{minor: minor, currency: currency}, nil
}

// NewMoneyDKK creates Money in DKK
func NewMoneyDKK(minor int64) Money {
	return Money{minor: minor, currency: DKK}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{currency: currency}
}

// Minor returns the amount in minor units
func (m Money) Minor() int64 {
	return m.minor
}

// Major returns the amount in major units (minor / 100)
func (m Money) Major() decimal.Decimal {
	return decimal.New(m.minor, -2)
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.minor < 0
}

// Add returns a new Money with the sum of both amounts
// Returns error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{minor: m.minor + other.minor, currency: m.currency}, nil
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.minor == other.minor
}

// String returns a locale-neutral representation, e.g. "1234.50 DKK"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Major().StringFixed(2), m.currency)
}

// Format formats the amount for display in the given locale
func (m Money) Format(locale string) string {
	return NewFormatter(locale).Format(m.minor, m.currency)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Minor    int64    `json:"minor"`
		Currency Currency `json:"currency"`
	}{
		Minor:    m.minor,
		Currency: m.currency,
	})
}

// Formatter renders minor-unit amounts for display. Display only: the
// output never feeds back into arithmetic.
type Formatter struct {
	tag        language.Tag
	printer    *message.Printer
	decimalSep string
}

// NewFormatter creates a formatter for a BCP 47 locale such as "da-DK".
// Unknown locales fall back to DefaultLocale.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	printer := message.NewPrinter(tag)
	sep := printer.Sprint(number.Decimal(1.5, number.Scale(1)))
	return &Formatter{
		tag:        tag,
		printer:    printer,
		decimalSep: strings.TrimSuffix(strings.TrimPrefix(sep, "1"), "5"),
	}
}

// Locale returns the formatter's language tag
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Format renders minor units as a currency amount, e.g. 123450 DKK -> "1.234,50 kr."
// The whole part is grouped by the locale and the cents are copied from the
// exact decimal value.
func (f *Formatter) Format(minor int64, cur Currency) string {
	if cur == "" {
		cur = DefaultCurrency
	}
	abs := decimal.New(minor, -2).Abs()
	whole := abs.Truncate(0)
	cents := abs.Sub(whole).StringFixed(2)[2:]
	amount := f.printer.Sprint(number.Decimal(whole.IntPart())) + f.decimalSep + cents

	sym := f.Symbol(cur)
	sign := ""
	if minor < 0 {
		sign = "-"
	}
	if f.symbolFirst() {
		return sign + sym + " " + amount
	}
	return sign + amount + " " + sym
}

// Symbol returns the locale's symbol for cur, or the ISO code when the
// locale has none
func (f *Formatter) Symbol(cur Currency) string {
	unit, err := currency.ParseISO(string(cur))
	if err != nil {
		return string(cur)
	}
	return f.printer.Sprint(currency.Symbol(unit))
}

// FormatQuantity renders a quantity with up to two fraction digits
func (f *Formatter) FormatQuantity(v float64) string {
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatPercent renders a percentage value such as 25 -> "25 %"
func (f *Formatter) FormatPercent(v float64) string {
	return f.FormatQuantity(v) + " %"
}

// symbolFirst reports whether the locale writes the currency before the amount
func (f *Formatter) symbolFirst() bool {
	base, _ := f.tag.Base()
	return base.String() == "en"
}

// FormatMinor formats minor units with the given currency and locale
func FormatMinor(minor int64, cur Currency, locale string) string {
	return NewFormatter(locale).Format(minor, cur)
}
