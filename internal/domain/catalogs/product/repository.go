package product

import (
	"context"

	"retailpos/internal/core/id"
	"retailpos/internal/domain"
)

// ListFilter narrows product listings.
type ListFilter struct {
	Search          string
	IncludeInactive bool
	LowStockOnly    bool
	LowStockLimit   int
	domain.Page
}

// Repository persists products. Stock mutations must run inside a transaction
// after LockForUpdate.
type Repository interface {
	GetByID(ctx context.Context, id id.ID) (*Product, error)

	// GetByIDs returns the products found; missing ids are simply absent.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// LockForUpdate row-locks the products in ascending id order.
	LockForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// AdjustStock adds delta to stock and returns the new balance.
	AdjustStock(ctx context.Context, id id.ID, delta int) (int, error)

	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Deactivate(ctx context.Context, id id.ID) error
	List(ctx context.Context, f ListFilter) ([]Product, int64, error)
}
