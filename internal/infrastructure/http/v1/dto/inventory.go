package dto

import (
	"strings"

	"retailpos/internal/core/id"
	"retailpos/internal/domain/inventory"
)

// AdjustStockRequest is a manual stock correction.
type AdjustStockRequest struct {
	ProductID id.ID  `json:"productId" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=entry exit"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note" binding:"max=500"`
}

// ToInput converts to the domain input.
func (r AdjustStockRequest) ToInput() inventory.AdjustInput {
	return inventory.AdjustInput{
		ProductID: r.ProductID,
		Direction: inventory.Direction(r.Direction),
		Quantity:  r.Quantity,
		Note:      r.Note,
	}
}

// MovementQuery filters the movement ledger.
type MovementQuery struct {
	PageQuery
	DateRangeQuery
	ProductID string `form:"productId" binding:"omitempty,uuid"`
	// Types is a comma-separated list of movement types.
	Types     string `form:"types"`
	Reference string `form:"reference"`
}

// ToFilter converts to the domain filter.
func (q MovementQuery) ToFilter() (inventory.HistoryFilter, error) {
	from, to, err := q.Bounds()
	if err != nil {
		return inventory.HistoryFilter{}, err
	}
	f := inventory.HistoryFilter{
		Reference: strings.TrimSpace(q.Reference),
		From:      from,
		To:        to,
		Page:      q.Page(),
	}
	if q.ProductID != "" {
		pid, err := id.Parse(q.ProductID)
		if err != nil {
			return inventory.HistoryFilter{}, err
		}
		f.ProductID = &pid
	}
	for _, t := range strings.Split(q.Types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			f.Types = append(f.Types, inventory.MovementType(t))
		}
	}
	return f, nil
}
