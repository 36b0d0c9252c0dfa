package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/advisor"
)

// Weather returns current conditions and the irrigation hint for a city.
func (h *Handler) Weather(c *gin.Context) {
	resp, err := h.weatherSvc.Current(c.Request.Context(), c.Query("city"))
	if err != nil {
		fail(c, err, "weather_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Advice returns the AI irrigation recommendation card.
func (h *Handler) Advice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	resp, err := h.advisorSvc.Advise(c.Request.Context(), userID, advisor.Request{City: c.Query("city")})
	if err != nil {
		fail(c, err, "advice_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}
