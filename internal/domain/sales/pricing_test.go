package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
	"retailpos/internal/domain/settings"
)

func item(price string, qty int) PriceItem {
	return PriceItem{ProductID: id.New(), Quantity: qty, UnitPrice: dec(price), UnitCost: decimal.Zero}
}

func noTax() settings.Pricing {
	return settings.Pricing{TaxPercent: dec("16"), RoundingMode: settings.RoundingNone}
}

func sumLines(lines []Line, pick func(Line) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(pick(l))
	}
	return total
}

func TestPriceTwoLinesWithDiscount(t *testing.T) {
	calc, err := Price([]PriceItem{item("100", 1), item("50", 1)}, dec("10"), noTax())
	require.NoError(t, err)

	assert.Equal(t, "150.00", calc.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", calc.DiscountAmount.StringFixed(2))
	assert.True(t, calc.TaxPct.IsZero())
	assert.Equal(t, "135.00", calc.Total.StringFixed(2))

	require.Len(t, calc.Lines, 2)
	assert.Equal(t, "10.00", calc.Lines[0].DiscountUSD.StringFixed(2))
	assert.Equal(t, "5.00", calc.Lines[1].DiscountUSD.StringFixed(2))
	assert.Equal(t, "90.00", calc.Lines[0].TotalUSD.StringFixed(2))
	assert.Equal(t, "45.00", calc.Lines[1].TotalUSD.StringFixed(2))
	assert.True(t, calc.Lines[0].BaseTotalUSD.Equal(calc.Lines[0].TotalUSD))
}

func TestPriceLineSumsMatchInvoiceAmounts(t *testing.T) {
	tests := []struct {
		name     string
		items    []PriceItem
		discount string
		cfg      settings.Pricing
	}{
		{
			name:     "thirds with tax",
			items:    []PriceItem{item("10", 1), item("10", 1), item("10", 1)},
			discount: "7",
			cfg:      settings.Pricing{TaxEnabled: true, TaxPercent: dec("16"), RoundingMode: settings.RoundingNone},
		},
		{
			name:     "odd prices",
			items:    []PriceItem{item("33.33", 3), item("10.01", 7), item("0.99", 1)},
			discount: "12.5",
			cfg:      settings.Pricing{TaxEnabled: true, TaxPercent: dec("16"), RoundingMode: settings.RoundingNone},
		},
		{
			name:     "nearest integer",
			items:    []PriceItem{item("19.99", 2), item("5.49", 3)},
			discount: "3",
			cfg:      settings.Pricing{TaxEnabled: true, TaxPercent: dec("8"), RoundingMode: settings.RoundingNearestInteger},
		},
		{
			name:     "single line",
			items:    []PriceItem{item("12.345", 3)},
			discount: "0",
			cfg:      noTax(),
		},
		{
			name:     "free items",
			items:    []PriceItem{item("0", 2), item("0", 1)},
			discount: "10",
			cfg:      noTax(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := Price(tt.items, dec(tt.discount), tt.cfg)
			require.NoError(t, err)

			assert.True(t, sumLines(calc.Lines, func(l Line) decimal.Decimal { return l.TotalUSD }).Equal(calc.Total),
				"line totals must sum to the invoice total")
			assert.True(t, sumLines(calc.Lines, func(l Line) decimal.Decimal { return l.DiscountUSD }).Equal(calc.DiscountAmount),
				"line discounts must sum to the invoice discount")
			assert.True(t, sumLines(calc.Lines, func(l Line) decimal.Decimal { return l.TaxUSD }).Equal(calc.TaxAmount),
				"line taxes must sum to the invoice tax")
			assert.True(t, sumLines(calc.Lines, func(l Line) decimal.Decimal { return l.SubtotalUSD }).Equal(calc.Subtotal))
		})
	}
}

func TestPriceTaxAndRounding(t *testing.T) {
	cfg := settings.Pricing{TaxEnabled: true, TaxPercent: dec("16"), RoundingMode: settings.RoundingNone}
	calc, err := Price([]PriceItem{item("100", 1)}, decimal.Zero, cfg)
	require.NoError(t, err)
	assert.Equal(t, "16.00", calc.TaxAmount.StringFixed(2))
	assert.Equal(t, "116.00", calc.Total.StringFixed(2))

	cfg.RoundingMode = settings.RoundingNearestInteger
	calc, err = Price([]PriceItem{item("10.30", 1)}, decimal.Zero, cfg)
	require.NoError(t, err)
	// 10.30 + 1.65 tax = 11.95
	assert.Equal(t, "12.00", calc.Total.StringFixed(2))
	assert.Equal(t, "12.00", calc.Lines[0].TotalUSD.StringFixed(2))
}

func TestPriceNearestIntegerRoundsHalfToEven(t *testing.T) {
	cfg := settings.Pricing{RoundingMode: settings.RoundingNearestInteger}
	tests := []struct {
		price string
		want  string
	}{
		{price: "100.50", want: "100"},
		{price: "101.50", want: "102"},
		{price: "100.49", want: "100"},
		{price: "100.51", want: "101"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			calc, err := Price([]PriceItem{item(tt.price, 1)}, decimal.Zero, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, calc.Total.String())
			assert.True(t, calc.Lines[0].TotalUSD.Equal(calc.Total))
		})
	}
}

func TestPriceTaxDisabledIgnoresPercent(t *testing.T) {
	cfg := settings.Pricing{TaxEnabled: false, TaxPercent: dec("16")}
	calc, err := Price([]PriceItem{item("100", 2)}, decimal.Zero, cfg)
	require.NoError(t, err)
	assert.True(t, calc.TaxAmount.IsZero())
	assert.Equal(t, "200.00", calc.Total.StringFixed(2))
}

func TestPriceClampsNegativeDiscount(t *testing.T) {
	calc, err := Price([]PriceItem{item("100", 1)}, dec("-5"), noTax())
	require.NoError(t, err)
	assert.True(t, calc.DiscountPct.IsZero())
	assert.Equal(t, "100.00", calc.Total.StringFixed(2))
}

func TestPriceErrors(t *testing.T) {
	_, err := Price(nil, decimal.Zero, noTax())
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyInvoice))

	_, err = Price([]PriceItem{item("10", 0)}, decimal.Zero, noTax())
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidQuantity))

	assert.True(t, apperror.HasCode(ValidateItems(nil), apperror.CodeEmptyInvoice))
	assert.True(t, apperror.HasCode(ValidateItems([]ItemInput{{ProductID: id.New(), Quantity: -1}}), apperror.CodeInvalidQuantity))
}

func TestApplyOverrideReprorates(t *testing.T) {
	calc, err := Price([]PriceItem{item("100", 1), item("50", 1)}, dec("10"), noTax())
	require.NoError(t, err)

	original, err := ApplyOverride(calc, dec("100"))
	require.NoError(t, err)

	assert.Equal(t, "135.00", original.StringFixed(2))
	assert.Equal(t, "100.00", calc.Total.StringFixed(2))
	assert.Equal(t, "66.67", calc.Lines[0].TotalUSD.StringFixed(2))
	assert.Equal(t, "33.33", calc.Lines[1].TotalUSD.StringFixed(2))
	assert.Equal(t, "90.00", calc.Lines[0].BaseTotalUSD.StringFixed(2))
	assert.Equal(t, "15.00", calc.DiscountAmount.StringFixed(2), "discount is untouched")
}

func TestApplyOverrideEqualSplitOnZeroTotals(t *testing.T) {
	calc, err := Price([]PriceItem{item("0", 1), item("0", 1), item("0", 1)}, decimal.Zero, noTax())
	require.NoError(t, err)

	_, err = ApplyOverride(calc, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, "3.33", calc.Lines[0].TotalUSD.StringFixed(2))
	assert.Equal(t, "3.33", calc.Lines[1].TotalUSD.StringFixed(2))
	assert.Equal(t, "3.34", calc.Lines[2].TotalUSD.StringFixed(2))
}

func TestApplyOverrideRejectsNonPositive(t *testing.T) {
	calc, err := Price([]PriceItem{item("10", 1)}, decimal.Zero, noTax())
	require.NoError(t, err)

	_, err = ApplyOverride(calc, decimal.Zero)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Equal(t, "10.00", calc.Total.StringFixed(2))
}

func TestProrateRemainderOnLastShare(t *testing.T) {
	shares := prorate(dec("100"), []decimal.Decimal{dec("1"), dec("1"), dec("1")}, false)
	assert.Equal(t, "33.33", shares[0].StringFixed(2))
	assert.Equal(t, "33.33", shares[1].StringFixed(2))
	assert.Equal(t, "33.34", shares[2].StringFixed(2))

	shares = prorate(dec("5"), []decimal.Decimal{decimal.Zero, decimal.Zero}, false)
	assert.True(t, shares[0].IsZero())
	assert.Equal(t, "5.00", shares[1].StringFixed(2))

	assert.Empty(t, prorate(dec("5"), nil, true))
}
