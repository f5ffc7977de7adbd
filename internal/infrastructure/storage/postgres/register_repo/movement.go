// Package register_repo provides the PostgreSQL stock movement ledger.
package register_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"retailpos/internal/domain/inventory"
	"retailpos/internal/infrastructure/storage/postgres"
)

const movementsTable = "inventory_movements"

var _ inventory.Repository = (*MovementRepo)(nil)

// MovementRepo implements inventory.Repository. Rows are only ever inserted.
type MovementRepo struct {
	*postgres.Table[inventory.Movement]
	inserter *postgres.BatchInserter
}

// NewMovementRepo creates a new movement ledger repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		Table:    postgres.NewTable[inventory.Movement](txm, movementsTable, "movement"),
		inserter: postgres.NewBatchInserter(txm),
	}
}

// CreateMovements copies movements into the ledger within the current transaction.
func (r *MovementRepo) CreateMovements(ctx context.Context, movements []inventory.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	if _, err := postgres.CopyStructs(ctx, r.inserter, movementsTable, r.Columns(), movements); err != nil {
		return postgres.MapError(err, "copy movements", "movement")
	}
	return nil
}

// List returns movements newest first.
func (r *MovementRepo) List(ctx context.Context, f inventory.HistoryFilter) ([]inventory.Movement, int64, error) {
	q := r.SelectAll()
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		q = q.Where(squirrel.Eq{"movement_type": types})
	}
	if ref := strings.TrimSpace(f.Reference); ref != "" {
		q = q.Where(squirrel.Eq{"reference": ref})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}

	items, total, err := r.Page(ctx, q, f.Page, "created_at DESC", "id DESC")
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	return items, total, nil
}
