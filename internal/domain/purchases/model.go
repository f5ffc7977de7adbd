// Package purchases records supplier purchases. Every purchase raises stock and
// emits a matching purchase movement.
package purchases

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
	"retailpos/internal/core/types"
)

// Purchase is one supplier delivery of a single product.
type Purchase struct {
	ID           id.ID           `db:"id" json:"id"`
	ProductID    id.ID           `db:"product_id" json:"productId"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitCostUSD  decimal.Decimal `db:"unit_cost_usd" json:"unitCostUsd"`
	TotalUSD     decimal.Decimal `db:"total_usd" json:"totalUsd"`
	SupplierName string          `db:"supplier_name" json:"supplierName"`
	Note         string          `db:"note" json:"note"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// CreateInput is a purchase request.
type CreateInput struct {
	ProductID    id.ID
	Quantity     int
	UnitCostUSD  decimal.Decimal
	SupplierName string
	Note         string
}

// Validate checks quantity and cost.
func (in CreateInput) Validate() error {
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if in.Quantity <= 0 {
		return apperror.NewInvalidQuantity(in.ProductID.String(), in.Quantity)
	}
	if in.UnitCostUSD.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").WithDetail("field", "unitCostUsd")
	}
	return nil
}

// newPurchase builds the row for a validated input.
func newPurchase(in CreateInput, actor string) *Purchase {
	return &Purchase{
		ID:           id.New(),
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		UnitCostUSD:  in.UnitCostUSD,
		TotalUSD:     types.Round2(in.UnitCostUSD.Mul(decimal.NewFromInt(int64(in.Quantity)))),
		SupplierName: strings.TrimSpace(in.SupplierName),
		Note:         strings.TrimSpace(in.Note),
		CreatedBy:    actor,
		CreatedAt:    time.Now().UTC(),
	}
}
