package sales

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/core/types"
)

// prorate splits amount across weights. Every share but the last is
// round2(amount × weight / Σweights); the last share is the remainder, so the
// shares always sum to round2(amount). When the weights sum to zero, earlier
// shares are zero (or equal parts if equalOnZero) and the last takes the rest.
func prorate(amount decimal.Decimal, weights []decimal.Decimal, equalOnZero bool) []decimal.Decimal {
	n := len(weights)
	shares := make([]decimal.Decimal, n)
	if n == 0 {
		return shares
	}

	total := types.Sum(weights...)
	count := decimal.NewFromInt(int64(n))
	distributed := decimal.Zero
	for i := 0; i < n-1; i++ {
		share := decimal.Zero
		switch {
		case total.IsPositive():
			share = types.Round2(amount.Mul(weights[i]).Div(total))
		case equalOnZero:
			share = types.Round2(amount.Div(count))
		}
		shares[i] = share
		distributed = distributed.Add(share)
	}
	shares[n-1] = types.Round2(amount.Sub(distributed))
	return shares
}
