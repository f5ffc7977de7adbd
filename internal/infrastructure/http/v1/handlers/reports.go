package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"retailpos/internal/domain/reports"
	"retailpos/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Range handles GET /reports/range
func (h *ReportsHandler) Range(c *gin.Context) {
	var q dto.ReportRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to, err := q.Dates()
	if err != nil {
		h.Error(c, err)
		return
	}
	report, err := h.service.Range(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Commissions handles GET /reports/commissions
func (h *ReportsHandler) Commissions(c *gin.Context) {
	var q dto.ReportRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to, err := q.Dates()
	if err != nil {
		h.Error(c, err)
		return
	}
	report, err := h.service.CommissionBySeller(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// KPIs handles GET /reports/kpis
func (h *ReportsHandler) KPIs(c *gin.Context) {
	kpis, err := h.service.KPIs(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, kpis)
}

// Daily handles GET /reports/daily
func (h *ReportsHandler) Daily(c *gin.Context) {
	var q dto.DailyQuery
	if !h.BindQuery(c, &q) {
		return
	}
	day, err := q.Day()
	if err != nil {
		h.Error(c, err)
		return
	}
	report, err := h.service.Daily(c.Request.Context(), day)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Dashboard handles GET /dashboard/summary
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	var q dto.ReportRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to, err := q.Dates()
	if err != nil {
		h.Error(c, err)
		return
	}
	summary, err := h.service.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Timeseries handles GET /dashboard/timeseries
func (h *ReportsHandler) Timeseries(c *gin.Context) {
	var q dto.ReportRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to, err := q.Dates()
	if err != nil {
		h.Error(c, err)
		return
	}
	series, err := h.service.Timeseries(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, series)
}

// Export handles GET /reports/range/export. The workbook is built in memory
// so that a failure still produces a JSON error.
func (h *ReportsHandler) Export(c *gin.Context) {
	var q dto.ReportRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to, err := q.Dates()
	if err != nil {
		h.Error(c, err)
		return
	}

	var buf bytes.Buffer
	filename, err := h.service.ExportRangeXLSX(c.Request.Context(), from, to, &buf)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
