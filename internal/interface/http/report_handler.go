package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
)

// Reports returns the weekly, monthly and yearly summaries.
func (h *Handler) Reports(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	resp, err := h.reportSvc.Reports(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "report_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReportPeriod returns one summary by name.
func (h *Handler) ReportPeriod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := h.reportSvc.Period(c.Request.Context(), userID, report.Period(c.Param("period")))
	if err != nil {
		fail(c, err, "report_failed")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportReport stores a CSV export and returns its location.
func (h *Handler) ExportReport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.reportSvc.Export(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "export_failed")
		return
	}
	c.JSON(http.StatusCreated, result)
}
