package handlers

import (
	"github.com/gin-gonic/gin"

	"retailpos/internal/domain/inventory"
	"retailpos/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves stock levels, the movement ledger and manual adjustments.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// Overview handles GET /inventory
func (h *InventoryHandler) Overview(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.Overview(c.Request.Context(), q.ToFilter(inventory.LowStockThreshold))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Movements handles GET /inventory/movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.History(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ProductMovements handles GET /products/:id/movements
func (h *InventoryHandler) ProductMovements(c *gin.Context) {
	pid, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	f.ProductID = &pid
	result, err := h.service.History(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Adjust handles POST /inventory/adjustments
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Adjust(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
