package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
)

// RecordUsage upserts one day of water accounting.
func (h *Handler) RecordUsage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req usage.RecordRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.usageSvc.Record(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err, "usage_failed")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListUsage returns the trailing ledger, oldest first.
func (h *Handler) ListUsage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWith(c, newAPIError(http.StatusBadRequest, "invalid_request", "days must be an integer", err))
			return
		}
		days = parsed
	}
	resp, err := h.usageSvc.List(c.Request.Context(), userID, days)
	if err != nil {
		fail(c, err, "usage_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteUsage removes the record for one date.
func (h *Handler) DeleteUsage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.usageSvc.Delete(c.Request.Context(), userID, c.Param("date")); err != nil {
		fail(c, err, "usage_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
