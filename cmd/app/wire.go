//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/smart-irrigation/internal/bootstrap"
	"github.com/yanqian/smart-irrigation/internal/domain/auth"
	"github.com/yanqian/smart-irrigation/internal/domain/device"
	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	"github.com/yanqian/smart-irrigation/internal/domain/weather"
	"github.com/yanqian/smart-irrigation/internal/infra/config"
	httpiface "github.com/yanqian/smart-irrigation/internal/interface/http"
	"github.com/yanqian/smart-irrigation/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		providePostgresPool,
		provideValkeyClient,
		provideAuthConfig,
		provideReportConfig,
		provideDeviceConfig,
		provideTelemetryConfig,
		provideWeatherConfig,
		provideAdvisorConfig,
		provideUserRepository,
		provideUsageRepository,
		provideDeviceStore,
		provideDeviceRepository,
		provideSettingsRepository,
		provideTelemetryRepository,
		provideContactRepository,
		provideEventPublisher,
		provideReportCache,
		provideObjectStorage,
		provideUsageInvalidator,
		provideWeatherClient,
		provideChatClient,
		provideTokenCounter,
		provideJobQueue,
		auth.NewService,
		usage.NewService,
		device.NewService,
		weather.NewService,
		provideReportService,
		provideTelemetryService,
		provideAdvisorService,
		provideContactService,
		provideMQTTSubscriber,
		provideHTTPServices,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
