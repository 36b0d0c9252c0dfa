package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Postgres PostgresConfig `yaml:"postgres"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	Report   ReportConfig   `yaml:"report"`
	Storage  StorageConfig  `yaml:"storage"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	LLM      LLMConfig      `yaml:"llm"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Weather  WeatherConfig  `yaml:"weather"`
	Sensors  SensorsConfig  `yaml:"sensors"`
	Devices  DevicesConfig  `yaml:"devices"`
	Contact  ContactConfig  `yaml:"contact"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for POST requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig controls token issuance and Google sign-in.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	Google          GoogleConfig  `yaml:"google"`
}

// GoogleConfig holds OAuth client settings.
type GoogleConfig struct {
	ClientID             string `yaml:"clientId"`
	ClientSecret         string `yaml:"clientSecret"`
	RedirectURL          string `yaml:"redirectUrl"`
	TokenEncryptionKey   string `yaml:"tokenEncryptionKey"`
	PostLoginRedirectURL string `yaml:"postLoginRedirectUrl"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
	Migrate  bool   `yaml:"migrate"`
}

// ValkeyConfig contains connection information for the cache and job queue.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// ReportConfig controls period report generation.
type ReportConfig struct {
	CacheTTL        time.Duration `yaml:"cacheTtl"`
	HistoryDays     int           `yaml:"historyDays"`
	FixtureFallback bool          `yaml:"fixtureFallback"`
}

// StorageConfig points at an S3-compatible bucket for report exports.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// MQTTConfig controls the sensor telemetry subscriber.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientId"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// KafkaConfig controls the domain event publisher.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey          string  `yaml:"apiKey"`
	BaseURL         string  `yaml:"baseUrl"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxPromptTokens int     `yaml:"maxPromptTokens"`
}

// AdvisorConfig controls the irrigation advice prompt.
type AdvisorConfig struct {
	Prompt string `yaml:"prompt"`
}

// WeatherConfig points at OpenWeatherMap.
type WeatherConfig struct {
	BaseURL     string `yaml:"baseUrl"`
	APIKey      string `yaml:"apiKey"`
	DefaultCity string `yaml:"defaultCity"`
	Units       string `yaml:"units"`
}

// RangeConfig is an optimal [min, max] band for one sensor.
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SensorsConfig holds the dashboard classification thresholds.
type SensorsConfig struct {
	SoilMoisture  RangeConfig `yaml:"soilMoisture"`
	Temperature   RangeConfig `yaml:"temperature"`
	Humidity      RangeConfig `yaml:"humidity"`
	WarningBand   float64     `yaml:"warningBand"`
	ScheduleHour  int         `yaml:"scheduleHour"`
	RetainPerUser int         `yaml:"retainPerUser"`
}

// DevicesConfig controls device registration and liveness.
type DevicesConfig struct {
	OfflineAfter time.Duration `yaml:"offlineAfter"`
	APIKeyLength int           `yaml:"apiKeyLength"`
}

// ContactConfig controls contact form notification delivery.
type ContactConfig struct {
	QueueKey string `yaml:"queueKey"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates the environment from the first .env file found. Existing variables win.
func loadDotEnv() {
	paths := []string{".env"}
	if v := os.Getenv("ENV_FILE"); v != "" {
		paths = append([]string{v}, paths...)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setList(&cfg.HTTP.AllowedOrigins, "HTTP_ALLOWED_ORIGINS")
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.Auth.Secret, "AUTH_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "AUTH_TOKEN_TTL")
	setDuration(&cfg.Auth.RefreshTokenTTL, "AUTH_REFRESH_TOKEN_TTL")
	setString(&cfg.Auth.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Auth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Auth.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&cfg.Auth.Google.TokenEncryptionKey, "GOOGLE_TOKEN_ENCRYPTION_KEY")
	setString(&cfg.Auth.Google.PostLoginRedirectURL, "GOOGLE_POST_LOGIN_REDIRECT_URL")

	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	setInt32(&cfg.Postgres.MaxConns, "POSTGRES_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "POSTGRES_MIN_CONNS")
	setBool(&cfg.Postgres.Migrate, "POSTGRES_MIGRATE")

	setBool(&cfg.Valkey.Enabled, "VALKEY_ENABLED")
	setString(&cfg.Valkey.Addr, "VALKEY_ADDR")
	setString(&cfg.Valkey.Prefix, "VALKEY_PREFIX")

	setDuration(&cfg.Report.CacheTTL, "REPORT_CACHE_TTL")
	setInt(&cfg.Report.HistoryDays, "REPORT_HISTORY_DAYS")
	setBool(&cfg.Report.FixtureFallback, "REPORT_FIXTURE_FALLBACK")

	setBool(&cfg.Storage.Enabled, "STORAGE_ENABLED")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.Region, "STORAGE_REGION")

	setBool(&cfg.MQTT.Enabled, "MQTT_ENABLED")
	setString(&cfg.MQTT.Broker, "MQTT_BROKER")
	setString(&cfg.MQTT.ClientID, "MQTT_CLIENT_ID")
	setString(&cfg.MQTT.Username, "MQTT_USERNAME")
	setString(&cfg.MQTT.Password, "MQTT_PASSWORD")
	setString(&cfg.MQTT.Topic, "MQTT_TOPIC")

	setBool(&cfg.Kafka.Enabled, "KAFKA_ENABLED")
	setList(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxPromptTokens, "LLM_MAX_PROMPT_TOKENS")
	setString(&cfg.Advisor.Prompt, "ADVISOR_PROMPT")

	setString(&cfg.Weather.BaseURL, "WEATHER_BASE_URL")
	setString(&cfg.Weather.APIKey, "OPENWEATHER_API_KEY")
	setString(&cfg.Weather.DefaultCity, "WEATHER_DEFAULT_CITY")
	setString(&cfg.Weather.Units, "WEATHER_UNITS")

	setDuration(&cfg.Devices.OfflineAfter, "DEVICE_OFFLINE_AFTER")
	setString(&cfg.Contact.QueueKey, "CONTACT_QUEUE_KEY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(parsed)
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/auth/signup",
					"/api/v1/contact",
					"/api/v1/telemetry",
					"/api/v1/devices",
					"/api/v1/reports/export",
				},
			},
		},
		Auth: AuthConfig{
			Secret:          "dev-secret-change-me",
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Valkey: ValkeyConfig{
			Prefix: "irrigation",
		},
		Report: ReportConfig{
			CacheTTL:        10 * time.Minute,
			HistoryDays:     60,
			FixtureFallback: true,
		},
		Storage: StorageConfig{
			Bucket: "irrigation-reports",
			Region: "auto",
		},
		MQTT: MQTTConfig{
			ClientID: "smart-irrigation-api",
			Topic:    "irrigation/+/telemetry",
		},
		Kafka: KafkaConfig{
			Topic: "irrigation.events",
		},
		LLM: LLMConfig{
			Model:           "gpt-4o-mini",
			Temperature:     0.2,
			MaxPromptTokens: 1500,
		},
		Advisor: AdvisorConfig{
			Prompt: "You are an agronomist advising a farmer on today's irrigation. Use the weather, soil moisture and crop settings provided. Respond strictly as JSON with the keys advice (string, at most two sentences), confidence (integer 0-100), priority (low, medium or high) and tips (array of <=3 short strings).",
		},
		Weather: WeatherConfig{
			BaseURL:     "https://api.openweathermap.org/data/2.5",
			DefaultCity: "Dharwad",
			Units:       "metric",
		},
		Sensors: SensorsConfig{
			SoilMoisture:  RangeConfig{Min: 60, Max: 80},
			Temperature:   RangeConfig{Min: 25, Max: 30},
			Humidity:      RangeConfig{Min: 60, Max: 80},
			WarningBand:   5,
			ScheduleHour:  6,
			RetainPerUser: 1000,
		},
		Devices: DevicesConfig{
			OfflineAfter: 15 * time.Minute,
			APIKeyLength: 32,
		},
		Contact: ContactConfig{
			QueueKey: "irrigation:jobs",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token ttls must be positive")
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Report.CacheTTL < 0 {
		return errors.New("report.cacheTtl cannot be negative")
	}
	if c.Report.HistoryDays < 0 {
		return errors.New("report.historyDays cannot be negative")
	}
	if c.Storage.Enabled {
		if strings.TrimSpace(c.Storage.Endpoint) == "" {
			return errors.New("storage.endpoint cannot be empty when storage is enabled")
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage.bucket cannot be empty when storage is enabled")
		}
	}
	if c.MQTT.Enabled && strings.TrimSpace(c.MQTT.Broker) == "" {
		return errors.New("mqtt.broker cannot be empty when mqtt is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers cannot be empty when kafka is enabled")
		}
		if strings.TrimSpace(c.Kafka.Topic) == "" {
			return errors.New("kafka.topic cannot be empty when kafka is enabled")
		}
	}
	if strings.TrimSpace(c.Advisor.Prompt) == "" {
		return errors.New("advisor.prompt cannot be empty")
	}
	if strings.TrimSpace(c.Weather.BaseURL) == "" {
		return errors.New("weather.baseUrl cannot be empty")
	}
	for name, r := range map[string]RangeConfig{
		"soilMoisture": c.Sensors.SoilMoisture,
		"temperature":  c.Sensors.Temperature,
		"humidity":     c.Sensors.Humidity,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("sensors.%s.min cannot exceed max", name)
		}
	}
	if c.Sensors.WarningBand < 0 {
		return errors.New("sensors.warningBand cannot be negative")
	}
	if c.Sensors.ScheduleHour < 0 || c.Sensors.ScheduleHour > 23 {
		return errors.New("sensors.scheduleHour must be between 0 and 23")
	}
	return nil
}
