package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
)

const (
	deviceIDHeader  = "X-Device-ID"
	deviceKeyHeader = "X-Device-Key"
)

// Dashboard returns sensor cards, system status and irrigation control.
func (h *Handler) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	dash, err := h.telemetrySvc.Dashboard(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "dashboard_failed")
		return
	}
	c.JSON(http.StatusOK, dash)
}

// IngestTelemetry accepts a reading from a device authenticated by its API key.
func (h *Handler) IngestTelemetry(c *gin.Context) {
	var req telemetry.ReadingRequest
	if !bindJSON(c, &req) {
		return
	}
	creds := telemetry.Credentials{
		DeviceID: firstNonEmpty(c.GetHeader(deviceIDHeader), req.DeviceID),
		APIKey:   firstNonEmpty(c.GetHeader(deviceKeyHeader), req.APIKey),
	}
	if creds.DeviceID == "" || creds.APIKey == "" {
		abortWith(c, newAPIError(http.StatusUnauthorized, "unauthorized", "device id and key are required", nil))
		return
	}
	reading, err := h.telemetrySvc.Ingest(c.Request.Context(), creds, req)
	if err != nil {
		fail(c, err, "telemetry_failed")
		return
	}
	c.JSON(http.StatusAccepted, reading)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
