package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func commissionLines() []Line {
	return []Line{
		{Quantity: 1, UnitCostUSD: dec("50"), TotalUSD: dec("90")},
		{Quantity: 1, UnitCostUSD: dec("60"), TotalUSD: dec("45")},
	}
}

func TestAllocateCommissionOnPaidAmount(t *testing.T) {
	lines := commissionLines()
	total := AllocateCommission(lines, dec("135"), dec("10"))

	assert.Equal(t, "90.00", lines[0].PaidUSD.StringFixed(2))
	assert.Equal(t, "45.00", lines[1].PaidUSD.StringFixed(2))
	assert.Equal(t, "40.00", lines[0].ProfitUSD.StringFixed(2))
	assert.Equal(t, "-15.00", lines[1].ProfitUSD.StringFixed(2))
	assert.Equal(t, "4.00", lines[0].CommissionUSD.StringFixed(2))
	assert.True(t, lines[1].CommissionUSD.IsZero(), "a loss-making line earns no commission")
	assert.Equal(t, "4.00", total.StringFixed(2))
}

func TestAllocateCommissionUnderpayment(t *testing.T) {
	lines := commissionLines()
	total := AllocateCommission(lines, dec("100"), dec("10"))

	assert.Equal(t, "66.67", lines[0].PaidUSD.StringFixed(2))
	assert.Equal(t, "33.33", lines[1].PaidUSD.StringFixed(2))
	assert.True(t, lines[0].PaidUSD.Add(lines[1].PaidUSD).Equal(dec("100")))
	// 16.67 profit on the first line only
	assert.Equal(t, "1.67", total.StringFixed(2))
}

func TestAllocateCommissionNeverNegative(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitCostUSD: dec("10"), TotalUSD: dec("10")},
		{Quantity: 3, UnitCostUSD: dec("10"), TotalUSD: dec("10")},
	}
	total := AllocateCommission(lines, dec("20"), dec("-5"))
	assert.True(t, total.IsZero())

	total = AllocateCommission(lines, dec("20"), dec("10"))
	for _, l := range lines {
		assert.False(t, l.CommissionUSD.IsNegative())
		assert.True(t, l.CommissionUSD.IsZero())
	}
	assert.True(t, total.Equal(decimal.Zero))
}
