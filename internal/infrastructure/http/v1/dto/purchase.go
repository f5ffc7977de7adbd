package dto

import (
	"github.com/shopspring/decimal"

	"retailpos/internal/core/id"
	"retailpos/internal/domain/purchases"
)

// CreatePurchaseRequest records a supplier delivery.
type CreatePurchaseRequest struct {
	ProductID    id.ID           `json:"productId" binding:"required"`
	Quantity     int             `json:"quantity"`
	UnitCostUSD  decimal.Decimal `json:"unitCostUsd"`
	SupplierName string          `json:"supplierName" binding:"max=200"`
	Note         string          `json:"note" binding:"max=500"`
}

// ToInput converts to the domain input.
func (r CreatePurchaseRequest) ToInput() purchases.CreateInput {
	return purchases.CreateInput{
		ProductID:    r.ProductID,
		Quantity:     r.Quantity,
		UnitCostUSD:  r.UnitCostUSD,
		SupplierName: r.SupplierName,
		Note:         r.Note,
	}
}

// PurchaseListQuery filters purchases.
type PurchaseListQuery struct {
	PageQuery
	DateRangeQuery
	ProductID string `form:"productId" binding:"omitempty,uuid"`
}

// ToFilter converts to the domain filter.
func (q PurchaseListQuery) ToFilter() (purchases.ListFilter, error) {
	from, to, err := q.Bounds()
	if err != nil {
		return purchases.ListFilter{}, err
	}
	f := purchases.ListFilter{From: from, To: to, Page: q.Page()}
	if q.ProductID != "" {
		pid, err := id.Parse(q.ProductID)
		if err != nil {
			return purchases.ListFilter{}, err
		}
		f.ProductID = &pid
	}
	return f, nil
}
