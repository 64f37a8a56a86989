package valueobject

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(10050, DKK)
		require.NoError(t, err)
		assert.Equal(t, DKK, m.Currency())
		assert.Equal(t, int64(10050), m.Minor())
		assert.True(t, m.Major().Equal(decimal.RequireFromString("100.50")))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(100, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Currency
		wantErr  bool
	}{
		{"empty defaults to DKK", "", DKK, false},
		{"lower case", "eur", EUR, false},
		{"padded", "  sek ", SEK, false},
		{"unknown code", "XYZ1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestMoney_Add(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		sum, err := NewMoneyDKK(150).Add(NewMoneyDKK(250))
		require.NoError(t, err)
		assert.Equal(t, int64(400), sum.Minor())
	})

	t.Run("different currencies", func(t *testing.T) {
		eur, _ := NewMoney(100, EUR)
		_, err := NewMoneyDKK(100).Add(eur)
		assert.Error(t, err)
	})
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, Zero(DKK).IsZero())
	assert.True(t, NewMoneyDKK(-1).IsNegative())
	assert.False(t, NewMoneyDKK(1).IsNegative())
	assert.True(t, NewMoneyDKK(5).Equals(NewMoneyDKK(5)))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "1234.50 DKK", NewMoneyDKK(123450).String())
	assert.Equal(t, "-0.05 DKK", NewMoneyDKK(-5).String())
}

func TestMoney_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewMoneyDKK(2500))
	require.NoError(t, err)
	assert.JSONEq(t, `{"minor":2500,"currency":"DKK"}`, string(data))
}

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter("da-DK")

	t.Run("danish grouping and decimal comma", func(t *testing.T) {
		assert.Equal(t, "1.234,50 kr.", f.Format(123450, DKK))
	})

	t.Run("zero", func(t *testing.T) {
		assert.Equal(t, "0,00 kr.", f.Format(0, DKK))
	})

	t.Run("empty currency uses default", func(t *testing.T) {
		assert.Equal(t, "25,00 kr.", f.Format(2500, ""))
	})

	t.Run("unknown currency uses ISO code", func(t *testing.T) {
		assert.Equal(t, "10,00 CHF", f.Format(1000, Currency("CHF")))
	})

	t.Run("symbol from locale data", func(t *testing.T) {
		assert.Equal(t, "99,95 €", f.Format(9995, EUR))
	})

	t.Run("negative", func(t *testing.T) {
		assert.Equal(t, "-1.234,05 kr.", f.Format(-123405, DKK))
		assert.Equal(t, "-0,07 kr.", f.Format(-7, DKK))
	})

	t.Run("exact beyond float precision", func(t *testing.T) {
		assert.Equal(t, "92.233.720.368.547.758,07 kr.", f.Format(math.MaxInt64, DKK))
		assert.Equal(t, "-92.233.720.368.547.758,08 kr.", f.Format(math.MinInt64, DKK))
	})
}

func TestFormatter_Symbol(t *testing.T) {
	da := NewFormatter("da-DK")
	assert.Equal(t, "kr.", da.Symbol(DKK))
	assert.Equal(t, "€", da.Symbol(EUR))
	assert.Equal(t, "XYZ1", da.Symbol(Currency("XYZ1")))
	assert.Equal(t, "$", NewFormatter("en-US").Symbol(USD))
}

func TestFormatter_EnglishPlacesSymbolFirst(t *testing.T) {
	f := NewFormatter("en-US")
	assert.Equal(t, "$ 1,234.50", f.Format(123450, USD))
	assert.Equal(t, "-$ 0.99", f.Format(-99, USD))
}

func TestNewFormatter_FallsBackOnBadLocale(t *testing.T) {
	f := NewFormatter("not a locale!!")
	assert.Equal(t, "da-DK", f.Locale())
}

func TestFormatter_QuantityAndPercent(t *testing.T) {
	f := NewFormatter("da-DK")
	assert.Equal(t, "2", f.FormatQuantity(2))
	assert.Equal(t, "1,5", f.FormatQuantity(1.5))
	assert.Equal(t, "25 %", f.FormatPercent(25))
}
