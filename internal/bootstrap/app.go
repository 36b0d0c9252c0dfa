package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/smart-irrigation/internal/infra/config"
	"github.com/yanqian/smart-irrigation/internal/infra/mqtt"
)

const (
	shutdownTimeout   = 10 * time.Second
	brokerConnectWait = 15 * time.Second
)

// Subscriber is a background message consumer started alongside the HTTP server.
type Subscriber interface {
	Start(ctx context.Context) error
	Stop()
}

// App encapsulates the HTTP server and sensor subscriber lifecycle.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	subscriber Subscriber
}

// NewApp is used by Wire to build the runnable app. subscriber may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, subscriber *mqtt.Subscriber) *App {
	app := &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server}
	if subscriber != nil {
		app.subscriber = subscriber
	}
	return app
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	if a.subscriber != nil {
		a.startSubscriber(ctx)
		defer a.subscriber.Stop()
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startSubscriber keeps serving HTTP when the broker is unreachable; the client keeps retrying.
func (a *App) startSubscriber(ctx context.Context) {
	startCtx, cancel := context.WithTimeout(ctx, brokerConnectWait)
	defer cancel()
	if err := a.subscriber.Start(startCtx); err != nil {
		a.logger.Error("mqtt subscriber not connected", "broker", a.cfg.MQTT.Broker, "error", err)
		return
	}
	a.logger.Info("mqtt subscriber connected", "broker", a.cfg.MQTT.Broker, "topic", a.cfg.MQTT.Topic)
}
