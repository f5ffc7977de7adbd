// Package inventory is the append-only stock movement ledger and the stock
// operations that are not sales (manual adjustments, opening balances).
package inventory

import (
	"fmt"
	"time"

	"retailpos/internal/core/apperror"
	"retailpos/internal/core/id"
)

// MovementType is the cause of a stock change.
type MovementType string

const (
	TypePurchase           MovementType = "purchase"
	TypeSale               MovementType = "sale"
	TypeSaleReversal       MovementType = "sale_reversal"
	TypeSaleEditAdjustment MovementType = "sale_edit_adjustment"
	TypeAdjustmentIn       MovementType = "adjustment_in"
	TypeAdjustmentOut      MovementType = "adjustment_out"
)

// Movement is an immutable ledger entry. Quantity is signed: for every product,
// stock equals the sum of its movement quantities.
type Movement struct {
	ID        id.ID        `db:"id" json:"id"`
	ProductID id.ID        `db:"product_id" json:"productId"`
	Type      MovementType `db:"movement_type" json:"movementType"`
	Quantity  int          `db:"quantity" json:"quantity"`
	Reference string       `db:"reference" json:"reference,omitempty"`
	Note      string       `db:"note" json:"note"`
	CreatedBy string       `db:"created_by" json:"createdBy"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

// NewMovement builds a movement with a fresh id and timestamp.
func NewMovement(productID id.ID, typ MovementType, qty int, reference, note, actor string) Movement {
	return Movement{
		ID:        id.New(),
		ProductID: productID,
		Type:      typ,
		Quantity:  qty,
		Reference: reference,
		Note:      note,
		CreatedBy: actor,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate enforces the sign convention of the movement type.
func (m Movement) Validate() error {
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("movement product is required")
	}
	var ok bool
	switch m.Type {
	case TypePurchase, TypeSaleReversal, TypeAdjustmentIn:
		ok = m.Quantity > 0
	case TypeSale, TypeAdjustmentOut:
		ok = m.Quantity < 0
	case TypeSaleEditAdjustment:
		ok = m.Quantity != 0
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown movement type %q", m.Type))
	}
	if !ok {
		return apperror.NewValidation("movement quantity has the wrong sign").
			WithDetail("movement_type", m.Type).
			WithDetail("quantity", m.Quantity)
	}
	return nil
}

// Direction of a manual adjustment.
type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// StockStatus flags low stock in the overview.
type StockStatus string

const (
	StatusLow StockStatus = "LOW"
	StatusOK  StockStatus = "OK"
)

// LowStockThreshold is the inclusive limit under which stock is LOW.
const LowStockThreshold = 5

// StatusFor classifies a stock level.
func StatusFor(stock int) StockStatus {
	if stock <= LowStockThreshold {
		return StatusLow
	}
	return StatusOK
}

// StockItem is one row of the stock overview.
type StockItem struct {
	ProductID id.ID       `json:"productId"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Stock     int         `json:"stock"`
	Status    StockStatus `json:"status"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
}
