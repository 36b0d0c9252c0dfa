package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("HTTP_ADDRESS", ":9090")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REPORT_CACHE_TTL", "2m")
	t.Setenv("POSTGRES_MAX_CONNS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.True(t, cfg.Kafka.Enabled)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, 2*time.Minute, cfg.Report.CacheTTL)
	require.Equal(t, int32(8), cfg.Postgres.MaxConns)
	require.Equal(t, "Dharwad", cfg.Weather.DefaultCity)
	require.Equal(t, 60.0, cfg.Sensors.SoilMoisture.Min)
}

func TestLoad_YAMLFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
http:
  address: ":7000"
report:
  historyDays: 90
sensors:
  soilMoisture:
    min: 55
    max: 75
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WEATHER_DEFAULT_CITY=Hubli\n"), 0o600))
	t.Setenv("CONFIG_PATH", yamlPath)
	t.Setenv("WEATHER_DEFAULT_CITY", "")
	os.Unsetenv("WEATHER_DEFAULT_CITY")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.HTTP.Address)
	require.Equal(t, 90, cfg.Report.HistoryDays)
	require.Equal(t, 55.0, cfg.Sensors.SoilMoisture.Min)
	require.Equal(t, "Hubli", cfg.Weather.DefaultCity)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty address":       func(c *Config) { c.HTTP.Address = "" },
		"valkey without addr": func(c *Config) { c.Valkey.Enabled = true },
		"mqtt without broker": func(c *Config) { c.MQTT.Enabled = true },
		"kafka without broker": func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		},
		"inverted range": func(c *Config) { c.Sensors.Humidity = RangeConfig{Min: 90, Max: 10} },
		"bad hour":       func(c *Config) { c.Sensors.ScheduleHour = 24 },
		"storage bucket": func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = "http://localhost:9000"
			c.Storage.Bucket = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, defaultConfig().Validate())
}
