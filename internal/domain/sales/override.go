package sales

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/types"
)

// ApplyOverride re-prorates the line totals onto manual, weighting each line
// by its pre-override total, and replaces the invoice total. Discount and tax
// amounts are left untouched. It returns the computed total it replaced.
// Callers must have checked that the actor is an administrator.
func ApplyOverride(calc *Calc, manual decimal.Decimal) (decimal.Decimal, error) {
	if !manual.IsPositive() {
		return decimal.Zero, apperror.NewValidation("manual invoice total must be greater than zero").
			WithDetail("field", "manualInvoiceTotal")
	}
	if len(calc.Lines) == 0 {
		return decimal.Zero, apperror.NewEmptyInvoice()
	}

	weights := make([]decimal.Decimal, len(calc.Lines))
	original := decimal.Zero
	for i, l := range calc.Lines {
		weights[i] = l.BaseTotalUSD
		original = original.Add(l.BaseTotalUSD)
	}

	manual = types.Round2(manual)
	for i, share := range prorate(manual, weights, true) {
		calc.Lines[i].TotalUSD = share
	}
	calc.Total = manual
	return types.Round2(original), nil
}
