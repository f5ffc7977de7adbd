// Package catalog_repo provides PostgreSQL implementations for the product
// catalog, currency rates and system settings.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/infrastructure/storage/postgres"
)

const productTable = "products"

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*postgres.Table[product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{Table: postgres.NewTable[product.Product](txm, productTable, "product")}
}

// GetByID retrieves a product, active or not.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetOne(ctx, r.SelectAll().Where(squirrel.Eq{"id": productID}), productID)
}

// GetByIDs retrieves the products that exist among ids.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	return r.selectMap(ctx, ids, r.SelectAll().Where(squirrel.Eq{"id": ids}))
}

// LockForUpdate takes row locks in id order so concurrent sales over the
// same products cannot deadlock.
func (r *ProductRepo) LockForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	q := r.SelectAll().
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	return r.selectMap(ctx, ids, q)
}

func (r *ProductRepo) selectMap(ctx context.Context, ids []id.ID, q squirrel.SelectBuilder) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []product.Product
	if err := r.TxManager().Select(ctx, &rows, q); err != nil {
		return nil, postgres.MapError(err, "select products", "product")
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// AdjustStock applies delta unless it would take stock below zero.
func (r *ProductRepo) AdjustStock(ctx context.Context, productID id.ID, delta int) (int, error) {
	q := postgres.Builder().
		Update(productTable).
		Set("stock", squirrel.Expr("stock + ?", delta)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.Expr("stock + ? >= 0", delta)).
		Suffix("RETURNING stock")

	var stock int
	err := r.TxManager().Get(ctx, &stock, q)
	if err == nil {
		return stock, nil
	}
	if !pgxscan.NotFound(err) {
		return 0, postgres.MapError(err, "adjust stock", "product")
	}

	current, err := r.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return 0, apperror.NewInsufficientStock(productID.String(), -delta, current.Stock)
}

// Create inserts p. A taken SKU surfaces as DUPLICATE_ENTRY.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.Insert(ctx, p)
}

// Update writes catalog fields with optimistic locking on version. Stock is
// only changed through AdjustStock.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	if err := r.UpdateVersioned(ctx, p, p.ID, p.Version, "sku", "stock", "is_active", "created_at"); err != nil {
		return err
	}
	p.Version++
	return nil
}

// Deactivate hides the product from sale.
func (r *ProductRepo) Deactivate(ctx context.Context, productID id.ID) error {
	q := postgres.Builder().
		Update(productTable).
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": productID})

	res, err := r.TxManager().Exec(ctx, q)
	if err != nil {
		return postgres.MapError(err, "deactivate product", "product")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// List returns products ordered by name.
func (r *ProductRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, int64, error) {
	q := r.SelectAll()
	if !f.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"brand": pattern},
			squirrel.ILike{"model": pattern},
		})
	}
	if f.LowStockOnly {
		q = q.Where(squirrel.LtOrEq{"stock": f.LowStockLimit})
	}

	items, total, err := r.Page(ctx, q, f.Page, "name", "sku")
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}
