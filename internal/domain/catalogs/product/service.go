package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
	"retailpos/internal/core/tx"
	"retailpos/internal/domain"
	"retailpos/internal/domain/audit"
	"retailpos/pkg/logger"
	"retailpos/pkg/numerator"
)

const entityType = "product"

// SKUAllocator issues the next SKU for a key.
type SKUAllocator interface {
	Next(ctx context.Context, cfg numerator.Config, key string) (string, error)
}

// OpeningStockRecorder writes the ledger entry backing a new product's initial stock.
type OpeningStockRecorder interface {
	RecordOpening(ctx context.Context, productID id.ID, qty int) error
}

// Service manages the product catalog.
type Service struct {
	repo    Repository
	txm     tx.Manager
	skus    SKUAllocator
	opening OpeningStockRecorder
	audit   audit.Recorder
}

// NewService creates the product service.
func NewService(repo Repository, txm tx.Manager, skus SKUAllocator, opening OpeningStockRecorder, rec audit.Recorder) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{repo: repo, txm: txm, skus: skus, opening: opening, audit: rec}
}

// Create allocates a SKU and stores the product. Initial stock is recorded
// in the movement ledger in the same transaction.
func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	normalize(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.ID = id.New()
	p.IsActive = true
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Version = 1

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		key := BuildSKUKey(p.Brand, p.ProductType, p.MeasureLabel())
		sku, err := s.skus.Next(ctx, numerator.DefaultConfig(SKUPrefix), key)
		if err != nil {
			return fmt.Errorf("allocate sku: %w", err)
		}
		p.SKU = sku

		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if p.Stock > 0 && s.opening != nil {
			if err := s.opening.RecordOpening(ctx, p.ID, p.Stock); err != nil {
				return err
			}
		}
		return s.audit.LogChange(ctx, entityType, p.ID.String(), audit.ActionCreate, snapshot(p))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "sku", p.SKU)
	return p, nil
}

// Update replaces catalog data and prices. SKU and stock are not editable here;
// stock only moves through purchases, sales and adjustments.
func (s *Service) Update(ctx context.Context, productID id.ID, in Product) (*Product, error) {
	normalize(&in)

	var updated *Product
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.LockForUpdate(ctx, []id.ID{productID})
		if err != nil {
			return err
		}
		current, ok := locked[productID]
		if !ok {
			return apperror.NewNotFound(entityType, productID)
		}
		before := snapshot(current)

		next := *current
		next.Name = in.Name
		next.ProductType = in.ProductType
		next.Brand = in.Brand
		next.Model = in.Model
		next.MeasureQuantity = in.MeasureQuantity
		next.MeasureUnit = in.MeasureUnit
		next.Description = in.Description
		next.InvoiceNote = in.InvoiceNote
		next.CostUSD = in.CostUSD
		next.BasePrice = in.BasePrice
		next.FinalCustomerPrice = in.FinalCustomerPrice
		next.WholesalePrice = in.WholesalePrice
		next.RetailPrice = in.RetailPrice
		next.CurrencyCode = in.CurrencyCode
		next.UpdatedAt = time.Now().UTC()

		if err := next.Validate(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		if changes := audit.Diff(before, snapshot(&next)); len(changes) > 0 {
			if err := s.audit.LogChange(ctx, entityType, productID.String(), audit.ActionUpdate, changes); err != nil {
				return err
			}
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate hides a product from sale. Products are never deleted.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Deactivate(ctx, productID); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, entityType, productID.String(), audit.ActionDeactivate,
			map[string]any{"isActive": map[string]any{"old": true, "new": false}})
	})
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, f ListFilter) (domain.ListResult[Product], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ListResult[Product]{}, err
	}
	return domain.NewListResult(items, total, f.Page), nil
}

func normalize(p *Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.CurrencyCode = strings.ToUpper(strings.TrimSpace(p.CurrencyCode))
	if p.CurrencyCode == "" {
		p.CurrencyCode = "USD"
	}
	if p.MeasureUnit == "" {
		p.MeasureUnit = "unit"
	}
	if p.MeasureQuantity.IsZero() {
		p.MeasureQuantity = decimal.NewFromInt(1)
	}
}

func snapshot(p *Product) map[string]any {
	return map[string]any{
		"sku":                p.SKU,
		"name":               p.Name,
		"costUsd":            p.CostUSD.StringFixed(2),
		"basePrice":          p.BasePrice.StringFixed(2),
		"finalCustomerPrice": p.FinalCustomerPrice.StringFixed(2),
		"wholesalePrice":     p.WholesalePrice.StringFixed(2),
		"retailPrice":        p.RetailPrice.StringFixed(2),
		"currencyCode":       p.CurrencyCode,
		"isActive":           p.IsActive,
	}
}
