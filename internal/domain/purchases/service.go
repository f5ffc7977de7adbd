package purchases

import (
	"context"
	"fmt"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/core/tx"
	"retailpos/internal/domain"
	"retailpos/internal/domain/audit"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/pkg/logger"
)

const entityType = "purchase"

// MovementRecorder appends ledger entries inside the caller's transaction.
type MovementRecorder interface {
	Record(ctx context.Context, movements []inventory.Movement) error
}

// Service registers purchases.
type Service struct {
	repo      Repository
	products  product.Repository
	movements MovementRecorder
	txm       tx.Manager
	audit     audit.Recorder
}

// NewService creates the purchase service.
func NewService(repo Repository, products product.Repository, movements MovementRecorder, txm tx.Manager, rec audit.Recorder) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{repo: repo, products: products, movements: movements, txm: txm, audit: rec}
}

// Create stores the purchase, raises stock and writes the purchase movement
// in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Purchase, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := newPurchase(in, appctx.GetUserID(ctx))

	var sku string
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.products.LockForUpdate(ctx, []id.ID{in.ProductID})
		if err != nil {
			return err
		}
		prod, ok := locked[in.ProductID]
		if !ok {
			return apperror.NewNotFound("product", in.ProductID)
		}
		sku = prod.SKU

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		if _, err := s.products.AdjustStock(ctx, p.ProductID, p.Quantity); err != nil {
			return err
		}
		note := fmt.Sprintf("Purchase %s #%s", p.ID, sku)
		m := inventory.NewMovement(p.ProductID, inventory.TypePurchase, p.Quantity, p.ID.String(), note, p.CreatedBy)
		if err := s.movements.Record(ctx, []inventory.Movement{m}); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, entityType, p.ID.String(), audit.ActionCreate, map[string]any{
			"productId":   p.ProductID.String(),
			"quantity":    p.Quantity,
			"unitCostUsd": p.UnitCostUSD.StringFixed(2),
			"totalUsd":    p.TotalUSD.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase registered",
		"purchase_id", p.ID,
		"sku", sku,
		"quantity", p.Quantity,
		"total_usd", p.TotalUSD.StringFixed(2),
	)
	return p, nil
}

// List returns purchases, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) (domain.ListResult[Purchase], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ListResult[Purchase]{}, err
	}
	return domain.NewListResult(items, total, f.Page), nil
}
