package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/advisor"
	"github.com/yanqian/smart-irrigation/internal/domain/auth"
	"github.com/yanqian/smart-irrigation/internal/domain/contact"
	"github.com/yanqian/smart-irrigation/internal/domain/device"
	"github.com/yanqian/smart-irrigation/internal/domain/report"
	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	"github.com/yanqian/smart-irrigation/internal/domain/weather"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth      auth.Service
	Usage     usage.Service
	Reports   report.Service
	Devices   device.Service
	Telemetry telemetry.Service
	Weather   weather.Service
	Advisor   advisor.Service
	Contact   contact.Service
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	authSvc      auth.Service
	usageSvc     usage.Service
	reportSvc    report.Service
	deviceSvc    device.Service
	telemetrySvc telemetry.Service
	weatherSvc   weather.Service
	advisorSvc   advisor.Service
	contactSvc   contact.Service
	authCfg      auth.Config
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svcs Services, authCfg auth.Config, logger *slog.Logger) *Handler {
	return &Handler{
		authSvc:      svcs.Auth,
		usageSvc:     svcs.Usage,
		reportSvc:    svcs.Reports,
		deviceSvc:    svcs.Devices,
		telemetrySvc: svcs.Telemetry,
		weatherSvc:   svcs.Weather,
		advisorSvc:   svcs.Advisor,
		contactSvc:   svcs.Contact,
		authCfg:      authCfg,
		logger:       logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentUser returns the authenticated user id or aborts with 401.
func currentUser(c *gin.Context) (int64, bool) {
	claims, ok := farmerClaims(c)
	if !ok || claims.UserID == 0 {
		abortWith(c, newAPIError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return 0, false
	}
	return claims.UserID, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWith(c, newAPIError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	return true
}

// fail aborts with the HTTP form of a domain error.
func fail(c *gin.Context, err error, fallback string) {
	abortWith(c, fromDomain(err, fallback))
}
