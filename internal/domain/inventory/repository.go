package inventory

import (
	"context"
	"time"

	"retailpos/internal/core/id"
	"retailpos/internal/domain"
)

// HistoryFilter narrows the movement listing.
type HistoryFilter struct {
	ProductID *id.ID
	Types     []MovementType
	Reference string
	From, To  *time.Time
	domain.Page
}

// Repository is append-only: movements are never updated or deleted.
type Repository interface {
	// CreateMovements bulk-inserts movements; requires a transaction in ctx.
	CreateMovements(ctx context.Context, movements []Movement) error

	// List returns movements newest first.
	List(ctx context.Context, f HistoryFilter) ([]Movement, int64, error)
}
