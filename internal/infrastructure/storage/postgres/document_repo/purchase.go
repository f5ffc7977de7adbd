package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailpos/internal/domain/purchases"
	"retailpos/internal/infrastructure/storage/postgres"
)

const purchasesTable = "purchases"

var _ purchases.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct {
	*postgres.Table[purchases.Purchase]
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{Table: postgres.NewTable[purchases.Purchase](txm, purchasesTable, "purchase")}
}

// Create inserts p.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchases.Purchase) error {
	return r.Insert(ctx, p)
}

// List returns purchases newest first.
func (r *PurchaseRepo) List(ctx context.Context, f purchases.ListFilter) ([]purchases.Purchase, int64, error) {
	q := r.SelectAll()
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}

	items, total, err := r.Page(ctx, q, f.Page, "created_at DESC", "id DESC")
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	return items, total, nil
}
