package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"retailpos/internal/core/apperror"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/infrastructure/http/v1/dto"
)

// CurrencyHandler serves currency rates.
type CurrencyHandler struct {
	*BaseHandler
	service *currency.Service
}

// NewCurrencyHandler creates a new currency handler.
func NewCurrencyHandler(base *BaseHandler, service *currency.Service) *CurrencyHandler {
	return &CurrencyHandler{BaseHandler: base, service: service}
}

// List handles GET /currencies
func (h *CurrencyHandler) List(c *gin.Context) {
	rates, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": rates})
}

// UpdateRate handles PUT /currencies/:code
func (h *CurrencyHandler) UpdateRate(c *gin.Context) {
	var req dto.UpdateRateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rate, err := h.service.UpdateRate(c.Request.Context(), c.Param("code"), req.RateToUSD)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rate)
}

// Convert handles GET /currencies/convert
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var q dto.ConvertQuery
	if !h.BindQuery(c, &q) {
		return
	}
	amount, err := decimal.NewFromString(q.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("amount must be a number").WithDetail("amount", q.Amount))
		return
	}
	from, to := currency.NormalizeCode(q.From), currency.NormalizeCode(q.To)
	converted, err := h.service.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ConvertResponse{Amount: amount, From: from, To: to, Converted: converted})
}
