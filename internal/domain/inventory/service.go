package inventory

import (
	"context"
	"fmt"
	"strings"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/id"
	"retailpos/internal/core/tx"
	"retailpos/internal/domain"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/pkg/logger"
)

// AdjustInput is a manual stock correction.
type AdjustInput struct {
	ProductID id.ID
	Direction Direction
	Quantity  int
	Note      string
}

// AdjustResult reports the new balance.
type AdjustResult struct {
	ProductID id.ID        `json:"productId"`
	NewStock  int          `json:"newStock"`
	Movement  MovementType `json:"movementType"`
}

// Service runs non-sale stock operations.
type Service struct {
	products  product.Repository
	movements Repository
	txm       tx.Manager
}

// NewService creates the inventory service.
func NewService(products product.Repository, movements Repository, txm tx.Manager) *Service {
	return &Service{products: products, movements: movements, txm: txm}
}

// Record validates and appends movements. Callers own the transaction.
func (s *Service) Record(ctx context.Context, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}
	for i, m := range movements {
		if err := m.Validate(); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("index", i)
			}
			return err
		}
	}
	if err := s.movements.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}
	return nil
}

// RecordOpening backs the initial stock of a freshly created product.
func (s *Service) RecordOpening(ctx context.Context, productID id.ID, qty int) error {
	m := NewMovement(productID, TypeAdjustmentIn, qty, "", "opening stock", appctx.GetUserID(ctx))
	return s.Record(ctx, []Movement{m})
}

// Adjust applies a manual entry or exit in one transaction.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (*AdjustResult, error) {
	if in.Quantity <= 0 {
		return nil, apperror.NewInvalidQuantity(in.ProductID.String(), in.Quantity)
	}

	var typ MovementType
	signed := in.Quantity
	switch Direction(strings.ToLower(string(in.Direction))) {
	case DirectionEntry:
		typ = TypeAdjustmentIn
	case DirectionExit:
		typ = TypeAdjustmentOut
		signed = -in.Quantity
	default:
		return nil, apperror.NewValidation("adjustment direction must be entry or exit").
			WithDetail("direction", in.Direction)
	}

	var result AdjustResult
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.products.LockForUpdate(ctx, []id.ID{in.ProductID})
		if err != nil {
			return err
		}
		if signed < 0 {
			if err := CheckAvailability(locked, map[id.ID]int{in.ProductID: -signed}); err != nil {
				return err
			}
		} else if _, ok := locked[in.ProductID]; !ok {
			return apperror.NewNotFound("product", in.ProductID)
		}

		newStock, err := s.products.AdjustStock(ctx, in.ProductID, signed)
		if err != nil {
			return err
		}
		m := NewMovement(in.ProductID, typ, signed, "", in.Note, appctx.GetUserID(ctx))
		if err := s.Record(ctx, []Movement{m}); err != nil {
			return err
		}
		result = AdjustResult{ProductID: in.ProductID, NewStock: newStock, Movement: typ}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory adjusted",
		"product_id", in.ProductID,
		"movement_type", typ,
		"quantity", signed,
		"new_stock", result.NewStock,
	)
	return &result, nil
}

// Overview lists stock levels with LOW/OK status.
func (s *Service) Overview(ctx context.Context, f product.ListFilter) (domain.ListResult[StockItem], error) {
	f.Page = f.Page.Normalize()
	if f.LowStockOnly && f.LowStockLimit == 0 {
		f.LowStockLimit = LowStockThreshold
	}
	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return domain.ListResult[StockItem]{}, err
	}
	out := make([]StockItem, 0, len(items))
	for _, p := range items {
		out = append(out, StockItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Stock:     p.Stock,
			Status:    StatusFor(p.Stock),
			IsActive:  p.IsActive,
			CreatedAt: p.CreatedAt,
		})
	}
	return domain.NewListResult(out, total, f.Page), nil
}

// History lists ledger entries, newest first.
func (s *Service) History(ctx context.Context, f HistoryFilter) (domain.ListResult[Movement], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.movements.List(ctx, f)
	if err != nil {
		return domain.ListResult[Movement]{}, err
	}
	return domain.NewListResult(items, total, f.Page), nil
}
