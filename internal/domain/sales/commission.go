package sales

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/core/types"
)

// AllocateCommission prorates the USD amount actually paid across lines by
// their share of the invoice total, then derives per-line cost, profit and
// commission. Commission is pct of the positive profit of each line, so a
// loss-making line earns nothing and never offsets another line.
// It returns the invoice commission.
func AllocateCommission(lines []Line, paidUSD, pct decimal.Decimal) decimal.Decimal {
	pct = types.MaxZero(pct)

	weights := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		weights[i] = l.TotalUSD
	}
	paid := prorate(paidUSD, weights, false)

	total := decimal.Zero
	for i := range lines {
		l := &lines[i]
		l.PaidUSD = paid[i]
		l.CostUSD = types.Round2(l.UnitCostUSD.Mul(decimal.NewFromInt(int64(l.Quantity))))
		l.ProfitUSD = l.PaidUSD.Sub(l.CostUSD)
		l.CommissionUSD = types.PercentOf(types.MaxZero(l.ProfitUSD), pct)
		total = total.Add(l.CommissionUSD)
	}
	return total
}
