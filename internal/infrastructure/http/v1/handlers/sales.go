package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain/sales"
	"retailpos/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves the invoice lifecycle.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	outcome, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	if len(outcome.PossibleDuplicates) > 0 {
		c.JSON(http.StatusConflict, dto.PossibleDuplicateResponse{
			Code:       apperror.CodePossibleDuplicate,
			Message:    "a recent invoice has the same total, resend with confirmPossibleDuplicate to proceed",
			Candidates: outcome.PossibleDuplicates,
		})
		return
	}
	h.Created(c, outcome)
}

// Get handles GET /sales/:code
func (h *SalesHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// List handles GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	var q dto.InvoiceListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Edit handles PUT /sales/:code
func (h *SalesHandler) Edit(c *gin.Context) {
	var req dto.EditInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	outcome, err := h.service.Edit(c.Request.Context(), c.Param("code"), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, outcome)
}

// Void handles POST /sales/:code/void
func (h *SalesHandler) Void(c *gin.Context) {
	var req dto.VoidInvoiceRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	outcome, err := h.service.Void(c.Request.Context(), c.Param("code"), req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, outcome)
}

// VoidMany handles POST /sales/void. Either every invoice is voided or none.
func (h *SalesHandler) VoidMany(c *gin.Context) {
	var req dto.VoidManyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outcomes, err := h.service.VoidMany(c.Request.Context(), req.Codes, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": outcomes})
}

// History handles GET /sales/:code/history
func (h *SalesHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}
