package purchases

import (
	"context"
	"time"

	"retailpos/internal/core/id"
	"retailpos/internal/domain"
)

// ListFilter narrows the purchase listing.
type ListFilter struct {
	ProductID *id.ID
	From, To  *time.Time
	domain.Page
}

// Repository persists purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	List(ctx context.Context, f ListFilter) ([]Purchase, int64, error)
}
