package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
)

// RegisterDevice adds a sensor unit and returns its API key once.
func (h *Handler) RegisterDevice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req device.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.deviceSvc.Register(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err, "device_failed")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListDevices returns the user's devices with derived status.
func (h *Handler) ListDevices(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	views, err := h.deviceSvc.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "device_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": views})
}

// RemoveDevice unregisters a device.
func (h *Handler) RemoveDevice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.deviceSvc.Remove(c.Request.Context(), userID, c.Param("id")); err != nil {
		fail(c, err, "device_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSettings returns irrigation settings, defaults when none are saved.
func (h *Handler) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	settings, err := h.deviceSvc.GetSettings(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "settings_failed")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings validates and stores irrigation settings.
func (h *Handler) SaveSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req device.Settings
	if !bindJSON(c, &req) {
		return
	}
	saved, err := h.deviceSvc.SaveSettings(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err, "settings_failed")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// SettingsOptions returns the crop and soil catalogs for the settings form.
func (h *Handler) SettingsOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.deviceSvc.Options())
}
