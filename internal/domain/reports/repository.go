package reports

import (
	"context"
	"time"
)

// Repository reads report data. Ranges are half-open: [start, end).
type Repository interface {
	// SaleLines returns the lines of non-voided invoices whose sale date
	// (falling back to the creation date) is in range, newest first.
	SaleLines(ctx context.Context, start, end time.Time) ([]SaleLine, error)

	// Purchases returns purchases created in range, newest first.
	Purchases(ctx context.Context, start, end time.Time) ([]PurchaseLine, error)

	// Totals sums non-voided invoices by sale date and purchases by creation date.
	Totals(ctx context.Context, start, end time.Time) (Totals, error)

	// DailyTotals returns per-day sums of days that have activity.
	DailyTotals(ctx context.Context, start, end time.Time) ([]DayTotals, error)

	// ProductCounts counts products and those at or under lowStock.
	ProductCounts(ctx context.Context, lowStock int) (ProductCounts, error)
}
