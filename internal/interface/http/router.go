package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	httpLogger := logger.With("component", "http")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(httpLogger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(httpLogger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, httpLogger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", handler.Signup)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.GET("/google/login", handler.GoogleLogin)
		authGroup.GET("/google/callback", handler.GoogleCallback)

		api.POST("/contact", handler.Contact)
		api.POST("/telemetry", handler.IngestTelemetry)
		api.GET("/weather", handler.Weather)
		api.GET("/settings/options", handler.SettingsOptions)

		secured := api.Group("")
		secured.Use(authMiddleware(handler.authSvc))
		{
			secured.GET("/auth/me", handler.Me)
			secured.PUT("/auth/profile", handler.UpdateProfile)
			secured.PUT("/auth/change-password", handler.ChangePassword)
			secured.POST("/auth/logout", handler.Logout)

			secured.GET("/dashboard", handler.Dashboard)
			secured.GET("/advice", handler.Advice)

			secured.GET("/usage", handler.ListUsage)
			secured.POST("/usage", handler.RecordUsage)
			secured.DELETE("/usage/:date", handler.DeleteUsage)

			secured.GET("/reports", handler.Reports)
			secured.GET("/reports/:period", handler.ReportPeriod)
			secured.POST("/reports/export", handler.ExportReport)

			secured.GET("/devices", handler.ListDevices)
			secured.POST("/devices", handler.RegisterDevice)
			secured.DELETE("/devices/:id", handler.RemoveDevice)

			secured.GET("/settings", handler.GetSettings)
			secured.PUT("/settings", handler.SaveSettings)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, httpLogger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
