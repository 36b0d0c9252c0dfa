package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/contact"
)

// Contact accepts a public contact form submission.
func (h *Handler) Contact(c *gin.Context) {
	var req contact.Request
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.contactSvc.Submit(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "contact_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}
