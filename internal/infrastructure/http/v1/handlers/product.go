package handlers

import (
	"github.com/gin-gonic/gin"

	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product directory.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter(inventory.LowStockThreshold))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p := req.ToProduct()
	created, err := h.service.Create(c.Request.Context(), &p)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	pid, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), pid)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	pid, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	updated, err := h.service.Update(c.Request.Context(), pid, req.ToProduct())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /products/:id. Products are deactivated, never removed.
func (h *ProductHandler) Delete(c *gin.Context) {
	pid, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), pid); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
