package sales

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
	"retailpos/internal/core/types"
	"retailpos/internal/domain/settings"
)

// PriceItem is a validated line ready for pricing.
type PriceItem struct {
	ProductID id.ID
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
	UnitCost  decimal.Decimal
}

// Calc is a priced invoice. The line amounts always sum exactly to the
// invoice-level discount, tax and total.
type Calc struct {
	Subtotal       decimal.Decimal
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxPct         decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Lines          []Line
}

// ValidateItems rejects empty invoices and non-positive quantities.
func ValidateItems(items []ItemInput) error {
	if len(items) == 0 {
		return apperror.NewEmptyInvoice()
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return apperror.NewInvalidQuantity(it.ProductID.String(), it.Quantity)
		}
	}
	return nil
}

// Price computes subtotal, discount, tax and total for items and prorates the
// invoice amounts onto the lines, the last line absorbing rounding residue.
// A negative discount percentage is treated as zero.
func Price(items []PriceItem, discountPct decimal.Decimal, cfg settings.Pricing) (*Calc, error) {
	if len(items) == 0 {
		return nil, apperror.NewEmptyInvoice()
	}

	subtotals := make([]decimal.Decimal, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, apperror.NewInvalidQuantity(it.ProductID.String(), it.Quantity)
		}
		subtotals[i] = lineSubtotal(it)
	}
	subtotal := types.Round2(types.Sum(subtotals...))

	discountPct = types.MaxZero(discountPct)
	discount := types.PercentOf(subtotal, discountPct)
	base := subtotal.Sub(discount)

	taxPct := cfg.EffectiveTaxPct()
	tax := types.PercentOf(base, taxPct)

	total := base.Add(tax)
	if cfg.RoundingMode == settings.RoundingNearestInteger {
		// Halves go to the even unit.
		total = total.RoundBank(0)
	} else {
		total = types.Round2(total)
	}

	discounts := prorate(discount, subtotals, false)
	taxes := prorate(tax, subtotals, false)

	calc := &Calc{
		Subtotal:       subtotal,
		DiscountPct:    discountPct,
		DiscountAmount: discount,
		TaxPct:         taxPct,
		TaxAmount:      tax,
		Total:          total,
		Lines:          make([]Line, len(items)),
	}

	last := len(items) - 1
	distributed := decimal.Zero
	for i, it := range items {
		lineTotal := types.Round2(total.Sub(distributed))
		if i < last {
			lineTotal = types.Round2(subtotals[i].Sub(discounts[i]).Add(taxes[i]))
			distributed = distributed.Add(lineTotal)
		}
		calc.Lines[i] = Line{
			Position:     i + 1,
			ProductID:    it.ProductID,
			SKU:          it.SKU,
			Quantity:     it.Quantity,
			UnitPriceUSD: it.UnitPrice,
			UnitCostUSD:  it.UnitCost,
			SubtotalUSD:  subtotals[i],
			DiscountUSD:  discounts[i],
			TaxUSD:       taxes[i],
			BaseTotalUSD: lineTotal,
			TotalUSD:     lineTotal,
		}
	}
	return calc, nil
}

// Subtotal is the invoice subtotal of items before discount and tax.
func Subtotal(items []PriceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(lineSubtotal(it))
	}
	return types.Round2(total)
}

func lineSubtotal(it PriceItem) decimal.Decimal {
	return types.Round2(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
}
