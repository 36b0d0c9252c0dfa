package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/smart-irrigation/internal/domain/advisor"
	"github.com/yanqian/smart-irrigation/internal/domain/auth"
	"github.com/yanqian/smart-irrigation/internal/domain/contact"
	"github.com/yanqian/smart-irrigation/internal/domain/device"
	"github.com/yanqian/smart-irrigation/internal/domain/events"
	"github.com/yanqian/smart-irrigation/internal/domain/report"
	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	"github.com/yanqian/smart-irrigation/internal/domain/weather"
	"github.com/yanqian/smart-irrigation/internal/infra/config"
	"github.com/yanqian/smart-irrigation/internal/infra/contactrepo"
	"github.com/yanqian/smart-irrigation/internal/infra/devicerepo"
	eventbus "github.com/yanqian/smart-irrigation/internal/infra/events"
	"github.com/yanqian/smart-irrigation/internal/infra/llm/chatgpt"
	"github.com/yanqian/smart-irrigation/internal/infra/llm/tokenizer"
	"github.com/yanqian/smart-irrigation/internal/infra/mqtt"
	"github.com/yanqian/smart-irrigation/internal/infra/postgres"
	"github.com/yanqian/smart-irrigation/internal/infra/queue"
	"github.com/yanqian/smart-irrigation/internal/infra/reportcache"
	"github.com/yanqian/smart-irrigation/internal/infra/storage"
	"github.com/yanqian/smart-irrigation/internal/infra/telemetryrepo"
	"github.com/yanqian/smart-irrigation/internal/infra/usagerepo"
	"github.com/yanqian/smart-irrigation/internal/infra/userrepo"
	"github.com/yanqian/smart-irrigation/internal/infra/weather/openweather"
	httpiface "github.com/yanqian/smart-irrigation/internal/interface/http"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			TokenEncryptionKey:   cfg.Auth.Google.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

// providePostgresPool returns nil when postgres is not configured or unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	pool, err := postgres.Open(context.Background(), postgres.Options{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
		Migrate:  cfg.Postgres.Migrate,
	}, logger)
	if err != nil {
		if errors.Is(err, postgres.ErrNotConfigured) {
			logger.Info("postgres dsn not set, using memory repositories")
		} else {
			logger.Error("postgres unavailable, using memory repositories", "error", err)
		}
		return nil, func() {}
	}
	logger.Info("postgres repositories enabled")
	return pool, pool.Close
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	if !cfg.Valkey.Enabled {
		return nil, func() {}
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil, func() {}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil, func() {}
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideUsageRepository(pool *pgxpool.Pool) usage.Repository {
	if pool == nil {
		return usagerepo.NewMemoryRepository()
	}
	return usagerepo.NewPostgresRepository(pool)
}

// deviceStore holds devices and irrigation settings in one backend.
type deviceStore interface {
	device.Repository
	device.SettingsRepository
}

func provideDeviceStore(pool *pgxpool.Pool) deviceStore {
	if pool == nil {
		return devicerepo.NewMemoryRepository()
	}
	return devicerepo.NewPostgresRepository(pool)
}

func provideDeviceRepository(store deviceStore) device.Repository { return store }

func provideSettingsRepository(store deviceStore) device.SettingsRepository { return store }

func provideTelemetryRepository(cfg *config.Config, pool *pgxpool.Pool) telemetry.Repository {
	if pool == nil {
		return telemetryrepo.NewMemoryRepository(cfg.Sensors.RetainPerUser)
	}
	return telemetryrepo.NewPostgresRepository(pool)
}

func provideContactRepository(pool *pgxpool.Pool) contact.Repository {
	if pool == nil {
		return contactrepo.NewMemoryRepository()
	}
	return contactrepo.NewPostgresRepository(pool)
}

func provideEventPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func()) {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return eventbus.NewLogPublisher(logger), func() {}
	}
	publisher := eventbus.NewKafkaPublisher(eventbus.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
	logger.Info("kafka event publisher enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close kafka writer", "error", err)
		}
	}
}

func provideReportConfig(cfg *config.Config) report.Config {
	return report.Config{
		CacheTTL:        cfg.Report.CacheTTL,
		HistoryDays:     cfg.Report.HistoryDays,
		FixtureFallback: cfg.Report.FixtureFallback,
	}
}

func provideReportCache(cfg *config.Config, client valkey.Client) report.Cache {
	if client == nil {
		return reportcache.NewMemoryCache()
	}
	return reportcache.NewValkeyCache(client, cfg.Valkey.Prefix)
}

// provideObjectStorage returns nil when exports are disabled.
func provideObjectStorage(cfg *config.Config, logger *slog.Logger) report.ObjectStorage {
	if !cfg.Storage.Enabled {
		logger.Info("object storage disabled, report export unavailable")
		return nil
	}
	s3, err := storage.NewS3Storage(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	if err != nil {
		logger.Error("failed to initialize object storage, keeping exports in memory", "error", err)
		return storage.NewMemoryStorage()
	}
	logger.Info("object storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	return s3
}

func provideReportService(cfg report.Config, records usage.Repository, cache report.Cache, store report.ObjectStorage, logger *slog.Logger) report.Service {
	return report.NewService(cfg, records, cache, store, logger)
}

func provideUsageInvalidator(reports report.Service) usage.Invalidator {
	return reportcache.NewReportInvalidator(reports)
}

func provideDeviceConfig(cfg *config.Config) device.Config {
	return device.Config{
		OfflineAfter: cfg.Devices.OfflineAfter,
		APIKeyLength: cfg.Devices.APIKeyLength,
	}
}

func provideTelemetryConfig(cfg *config.Config) telemetry.Config {
	out := telemetry.DefaultConfig()
	if r := cfg.Sensors.SoilMoisture; r.Max > r.Min {
		out.SoilMoisture = telemetry.Range{Min: r.Min, Max: r.Max}
	}
	if r := cfg.Sensors.Temperature; r.Max > r.Min {
		out.Temperature = telemetry.Range{Min: r.Min, Max: r.Max}
	}
	if r := cfg.Sensors.Humidity; r.Max > r.Min {
		out.Humidity = telemetry.Range{Min: r.Min, Max: r.Max}
	}
	if cfg.Sensors.WarningBand > 0 {
		out.WarningBand = cfg.Sensors.WarningBand
	}
	if cfg.Sensors.ScheduleHour >= 0 && cfg.Sensors.ScheduleHour < 24 {
		out.ScheduleHour = cfg.Sensors.ScheduleHour
	}
	return out
}

func provideTelemetryService(cfg telemetry.Config, repo telemetry.Repository, devices device.Service, publisher events.Publisher, logger *slog.Logger) telemetry.Service {
	return telemetry.NewService(cfg, repo, devices, publisher, logger)
}

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{DefaultCity: cfg.Weather.DefaultCity}
}

// provideWeatherClient returns nil without an API key so the service serves demo data.
func provideWeatherClient(cfg *config.Config, logger *slog.Logger) weather.Client {
	if strings.TrimSpace(cfg.Weather.APIKey) == "" {
		logger.Info("weather api key not set, serving demo conditions")
		return nil
	}
	client, err := openweather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Units)
	if err != nil {
		logger.Error("invalid weather client configuration, serving demo conditions", "error", err)
		return nil
	}
	return client
}

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Prompt:          cfg.Advisor.Prompt,
		MaxPromptTokens: cfg.LLM.MaxPromptTokens,
	}
}

// provideChatClient returns nil without an API key so advice stays rule based.
func provideChatClient(cfg *config.Config, logger *slog.Logger) advisor.ChatClient {
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Info("llm client disabled, advice is rule based", "reason", err.Error())
		return nil
	}
	return client
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) advisor.TokenCounter {
	return tokenizer.New(cfg.LLM.Model, logger)
}

func provideAdvisorService(cfg advisor.Config, weatherSvc weather.Service, telemetrySvc telemetry.Service, deviceSvc device.Service, client advisor.ChatClient, counter advisor.TokenCounter, logger *slog.Logger) advisor.Service {
	return advisor.NewService(cfg, weatherSvc, telemetrySvc, deviceSvc, client, counter, logger)
}

func provideJobQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) (queue.HandlerQueue, func()) {
	var q queue.HandlerQueue
	if client == nil {
		q = queue.NewImmediateQueue(nil)
	} else {
		logger.Info("valkey job queue enabled", "key", cfg.Contact.QueueKey)
		q = queue.NewValkeyQueue(client, cfg.Contact.QueueKey, logger)
	}
	return q, q.Close
}

func provideContactService(repo contact.Repository, q queue.HandlerQueue, logger *slog.Logger) contact.Service {
	svc := contact.NewService(repo, q, logger)
	q.SetHandler(svc.HandleJob)
	return svc
}

func provideMQTTSubscriber(cfg *config.Config, telemetrySvc telemetry.Service, logger *slog.Logger) *mqtt.Subscriber {
	if !cfg.MQTT.Enabled {
		return nil
	}
	return mqtt.NewSubscriber(mqtt.Config{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Topic:    cfg.MQTT.Topic,
	}, telemetrySvc, logger)
}

func provideHTTPServices(
	authSvc auth.Service,
	usageSvc usage.Service,
	reportSvc report.Service,
	deviceSvc device.Service,
	telemetrySvc telemetry.Service,
	weatherSvc weather.Service,
	advisorSvc advisor.Service,
	contactSvc contact.Service,
) httpiface.Services {
	return httpiface.Services{
		Auth:      authSvc,
		Usage:     usageSvc,
		Reports:   reportSvc,
		Devices:   deviceSvc,
		Telemetry: telemetrySvc,
		Weather:   weatherSvc,
		Advisor:   advisorSvc,
		Contact:   contactSvc,
	}
}
