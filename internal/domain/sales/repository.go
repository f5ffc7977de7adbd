package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository persists invoices with their lines. Mutating methods require a
// transaction in ctx.
type Repository interface {
	// Create inserts the header and all lines.
	Create(ctx context.Context, inv *Invoice) error

	// GetByCode returns the invoice with its lines, voided or not.
	GetByCode(ctx context.Context, code string) (*Invoice, error)

	// LockActive row-locks a non-voided invoice and loads its lines.
	// Unknown and voided invoices are NotFound.
	LockActive(ctx context.Context, code string) (*Invoice, error)

	// UpdateHeader writes header fields and the amounts of the existing lines.
	UpdateHeader(ctx context.Context, inv *Invoice) error

	// ReplaceLines writes header fields, deletes the old lines and inserts inv.Lines.
	ReplaceLines(ctx context.Context, inv *Invoice) error

	// MarkVoided flips the voided flag.
	MarkVoided(ctx context.Context, inv *Invoice) error

	// FindRecentByTotal lists active invoices created at or after since whose
	// total is within tolerance of total.
	FindRecentByTotal(ctx context.Context, since time.Time, total, tolerance decimal.Decimal) ([]DuplicateCandidate, error)

	// List returns invoice headers without lines, newest first.
	List(ctx context.Context, f ListFilter) ([]Invoice, int64, error)
}
