package handlers

import (
	"github.com/gin-gonic/gin"

	"retailpos/internal/domain/settings"
	"retailpos/internal/infrastructure/http/v1/dto"
)

// SettingsHandler manages system settings.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// List handles GET /settings
func (h *SettingsHandler) List(c *gin.Context) {
	entries, err := h.service.All(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// Get handles GET /settings/:key
func (h *SettingsHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entry)
}

// Update handles PUT /settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Set(c.Request.Context(), req.Values); err != nil {
		h.Error(c, err)
		return
	}
	h.List(c)
}
