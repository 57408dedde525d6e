package billing

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(qty, price string, rate TaxRate) LineItem {
	return LineItem{Order: 1, Description: "Work", Quantity: dec(qty), UnitPrice: dec(price), TaxRate: rate}
}

func assertTotals(t *testing.T, totals Totals, subtotal, tax, total string) {
	t.Helper()
	assert.Equal(t, subtotal, totals.Subtotal.StringFixed(2), "subtotal")
	assert.Equal(t, tax, totals.TaxAmount.StringFixed(2), "tax")
	assert.Equal(t, total, totals.TotalPrice.StringFixed(2), "total")
}

// ===== Scenario Tests =====

func TestCompute_TaxedLine(t *testing.T) {
	totals, err := Compute([]LineItem{line("2", "50", TaxRateGST)}, DiscountDollar, decimal.Zero)
	require.NoError(t, err)

	assertTotals(t, totals, "100.00", "10.00", "110.00")
	require.Len(t, totals.LineTotals, 1)
	assert.Equal(t, "110.00", totals.LineTotals[0].StringFixed(2))
}

func TestCompute_DollarDiscount(t *testing.T) {
	totals, err := Compute([]LineItem{line("2", "50", TaxRateGST)}, DiscountDollar, dec("20"))
	require.NoError(t, err)

	assertTotals(t, totals, "100.00", "10.00", "90.00")
}

func TestCompute_PercentDiscount(t *testing.T) {
	totals, err := Compute([]LineItem{line("1", "200", TaxRateGST)}, DiscountPercent, dec("15"))
	require.NoError(t, err)

	assertTotals(t, totals, "200.00", "20.00", "187.00")
}

func TestCompute_UntaxedLine(t *testing.T) {
	totals, err := Compute([]LineItem{line("1", "100", TaxRateNone)}, DiscountDollar, decimal.Zero)
	require.NoError(t, err)

	assertTotals(t, totals, "100.00", "0.00", "100.00")
}

// ===== Behaviour Tests =====

func TestCompute_EmptyItems(t *testing.T) {
	totals, err := Compute(nil, DiscountDollar, decimal.Zero)
	require.NoError(t, err)

	assertTotals(t, totals, "0.00", "0.00", "0.00")
	assert.Empty(t, totals.LineTotals)
}

func TestCompute_DiscountFloor(t *testing.T) {
	items := []LineItem{line("2", "50", TaxRateGST)}

	tests := []struct {
		name  string
		dtype DiscountType
		value string
	}{
		{"dollar above total", DiscountDollar, "500"},
		{"dollar equal total", DiscountDollar, "110"},
		{"percent above hundred", DiscountPercent, "150"},
		{"percent hundred", DiscountPercent, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := Compute(items, tt.dtype, dec(tt.value))
			require.NoError(t, err)
			assert.True(t, totals.TotalPrice.IsZero(), "got %s", totals.TotalPrice)
			assert.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
		})
	}
}

func TestCompute_EmptyDiscountTypeIsDollar(t *testing.T) {
	totals, err := Compute([]LineItem{line("1", "100", TaxRateNone)}, "", dec("10"))
	require.NoError(t, err)
	assert.Equal(t, "90.00", totals.TotalPrice.StringFixed(2))
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	t.Run("subtotal", func(t *testing.T) {
		totals, err := Compute([]LineItem{line("3", "0.335", TaxRateNone)}, DiscountDollar, decimal.Zero)
		require.NoError(t, err)
		assertTotals(t, totals, "1.01", "0.00", "1.01")
	})

	t.Run("tax and line total", func(t *testing.T) {
		totals, err := Compute([]LineItem{line("1", "0.05", TaxRateGST)}, DiscountDollar, decimal.Zero)
		require.NoError(t, err)
		assertTotals(t, totals, "0.05", "0.01", "0.06")
		assert.Equal(t, "0.06", totals.LineTotals[0].StringFixed(2))
	})

	t.Run("aggregate rounds the unrounded sum", func(t *testing.T) {
		items := []LineItem{
			line("1", "0.333", TaxRateNone),
			line("1", "0.333", TaxRateNone),
			line("1", "0.333", TaxRateNone),
		}
		totals, err := Compute(items, DiscountDollar, decimal.Zero)
		require.NoError(t, err)
		for _, lt := range totals.LineTotals {
			assert.Equal(t, "0.33", lt.StringFixed(2))
		}
		assertTotals(t, totals, "1.00", "0.00", "1.00")
	})
}

func TestCompute_NegativeHalvesRoundUp(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"-0.005", "0.00"},
		{"-0.015", "-0.01"},
		{"-0.0149", "-0.01"},
		{"-0.0151", "-0.02"},
		{"0.005", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			totals, err := Compute([]LineItem{line("1", tt.price, TaxRateNone)}, DiscountDollar, decimal.Zero)
			require.NoError(t, err)
			assert.Equal(t, tt.want, totals.LineTotals[0].StringFixed(2))
			assert.Equal(t, tt.want, totals.Subtotal.StringFixed(2))
		})
	}
}

func TestCompute_CreditLine(t *testing.T) {
	items := []LineItem{
		line("1", "100", TaxRateGST),
		line("1", "-20", TaxRateNone),
	}
	totals, err := Compute(items, DiscountDollar, decimal.Zero)
	require.NoError(t, err)

	assertTotals(t, totals, "80.00", "10.00", "90.00")
	assert.Equal(t, "-20.00", totals.LineTotals[1].StringFixed(2))
}

func TestCompute_LineTotalIsNotDoubled(t *testing.T) {
	totals, err := Compute([]LineItem{line("4", "25", TaxRateGST)}, DiscountDollar, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, "110.00", totals.LineTotals[0].StringFixed(2))
	assert.Equal(t, "110.00", totals.TotalPrice.StringFixed(2))
}

func TestCompute_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		dtype DiscountType
		value string
	}{
		{"negative quantity", []LineItem{line("-1", "10", TaxRateNone)}, DiscountDollar, "0"},
		{"unsupported tax rate", []LineItem{line("1", "10", TaxRate(5))}, DiscountDollar, "0"},
		{"negative discount", []LineItem{line("1", "10", TaxRateNone)}, DiscountDollar, "-1"},
		{"unknown discount type", []LineItem{line("1", "10", TaxRateNone)}, DiscountType("FREE"), "0"},
		{"quantity beyond four places", []LineItem{line("0.00004", "1000", TaxRateNone)}, DiscountDollar, "0"},
		{"unit price beyond four places", []LineItem{line("1", "9.99999", TaxRateNone)}, DiscountDollar, "0"},
		{"discount beyond four places", []LineItem{line("1", "10", TaxRateNone)}, DiscountDollar, "0.00001"},
		{"unit price too large", []LineItem{line("1", "100000000000000", TaxRateNone)}, DiscountDollar, "0"},
		{"line total too large", []LineItem{line("10000000", "10000000", TaxRateNone)}, DiscountDollar, "0"},
		{"document total too large", []LineItem{
			line("1", "60000000000000", TaxRateNone),
			line("1", "60000000000000", TaxRateNone),
		}, DiscountDollar, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.items, tt.dtype, dec(tt.value))
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestCompute_FourDecimalPlacesAllowed(t *testing.T) {
	totals, err := Compute([]LineItem{line("0.0004", "1000", TaxRateNone), line("1.5000", "-0.1234", TaxRateNone)},
		DiscountDollar, dec("0.0001"))
	require.NoError(t, err)
	assert.Equal(t, "0.21", totals.Subtotal.StringFixed(2))
}

func TestCompute_ZeroQuantityAllowed(t *testing.T) {
	totals, err := Compute([]LineItem{line("0", "10", TaxRateGST)}, DiscountDollar, decimal.Zero)
	require.NoError(t, err)
	assertTotals(t, totals, "0.00", "0.00", "0.00")
}

// ===== Property Tests =====

func randomItems(r *rand.Rand) []LineItem {
	n := r.IntN(6)
	items := make([]LineItem, n)
	for i := range items {
		rate := TaxRateNone
		if r.IntN(2) == 1 {
			rate = TaxRateGST
		}
		items[i] = LineItem{
			Order:     i + 1,
			Quantity:  decimal.New(int64(r.IntN(1000)), -int32(r.IntN(3))),
			UnitPrice: decimal.New(int64(r.IntN(100000)), -int32(r.IntN(4))),
			TaxRate:   rate,
		}
	}
	return items
}

func TestCompute_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 500; i++ {
		items := randomItems(r)
		dtype := DiscountDollar
		if r.IntN(2) == 1 {
			dtype = DiscountPercent
		}
		value := decimal.New(int64(r.IntN(20000)), -2)

		first, err := Compute(items, dtype, value)
		require.NoError(t, err)
		second, err := Compute(items, dtype, value)
		require.NoError(t, err)

		assert.True(t, first.Equal(second), "compute must be idempotent")
		assert.False(t, first.TotalPrice.IsNegative(), "total must not be negative")
		assert.True(t, first.Subtotal.Equal(first.Subtotal.Round(2)))
		assert.True(t, first.TaxAmount.Equal(first.TaxAmount.Round(2)))
		assert.True(t, first.TotalPrice.Equal(first.TotalPrice.Round(2)))

		undiscounted, err := Compute(items, DiscountDollar, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, first.TotalPrice.LessThanOrEqual(undiscounted.TotalPrice))
		assert.True(t, undiscounted.TotalPrice.Equal(undiscounted.Subtotal.Add(undiscounted.TaxAmount)))
	}
}
