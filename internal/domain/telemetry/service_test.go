package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
	"github.com/yanqian/smart-irrigation/internal/domain/events"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

func TestClassify(t *testing.T) {
	optimal := Range{Min: 60, Max: 80}
	cases := []struct {
		value float64
		want  string
	}{
		{60, StatusOptimal},
		{80, StatusOptimal},
		{55, StatusWarning},
		{85, StatusWarning},
		{54.9, StatusCritical},
		{90, StatusCritical},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.value, optimal, 5), "value %v", tc.value)
	}
}

func TestServiceIngestStoresAndAlerts(t *testing.T) {
	repo := &memoryRepo{}
	devices := newStubDevices()
	pub := &capturePublisher{}
	svc := newTestService(repo, devices, pub)

	reading, err := svc.Ingest(context.Background(), Credentials{DeviceID: "IRR-001", APIKey: "secret"}, ReadingRequest{
		SoilMoisture: 65,
		Temperature:  28,
		Humidity:     70,
		Battery:      85,
		Signal:       "Good",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reading.ID)
	require.Equal(t, int64(1), reading.UserID)
	require.Equal(t, "good", reading.Signal)
	require.Equal(t, svc.now(), reading.RecordedAt)
	require.Equal(t, 85, devices.battery)
	require.Empty(t, pub.events)

	_, err = svc.Ingest(context.Background(), Credentials{DeviceID: "IRR-001", APIKey: "secret"}, ReadingRequest{
		SoilMoisture: 30,
		Temperature:  28,
		Humidity:     70,
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	require.Equal(t, events.TypeTelemetryAlert, pub.events[0].Type)
	alert := pub.events[0].Payload.(Alert)
	require.Len(t, alert.Metrics, 1)
	require.Equal(t, MetricSoilMoisture, alert.Metrics[0].Key)
	require.Len(t, repo.readings, 2)
}

func TestServiceIngestRejects(t *testing.T) {
	svc := newTestService(&memoryRepo{}, newStubDevices(), nil)

	_, err := svc.Ingest(context.Background(), Credentials{DeviceID: "IRR-001", APIKey: "nope"}, ReadingRequest{})
	require.True(t, apperrors.IsCode(err, "unauthorized"))

	creds := Credentials{DeviceID: "IRR-001", APIKey: "secret"}
	_, err = svc.Ingest(context.Background(), creds, ReadingRequest{SoilMoisture: 120})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Ingest(context.Background(), creds, ReadingRequest{
		SoilMoisture: 60,
		Timestamp:    svc.now().Add(time.Hour),
	})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestServiceDashboard(t *testing.T) {
	repo := &memoryRepo{}
	devices := newStubDevices()
	devices.views = []device.View{
		{ID: "IRR-001", Status: device.StatusConnected},
		{ID: "IRR-002", Status: device.StatusDisconnected},
	}
	devices.settings = device.Settings{Automation: true, IrrigationDuration: 45, MoistureThreshold: 70}
	svc := newTestService(repo, devices, nil)

	empty, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, empty.HasReading)
	require.Empty(t, empty.Metrics)

	_, err = svc.Ingest(context.Background(), Credentials{DeviceID: "IRR-001", APIKey: "secret"}, ReadingRequest{
		SoilMoisture: 65,
		Temperature:  33,
		Humidity:     40,
	})
	require.NoError(t, err)

	dash, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, dash.HasReading)
	require.Len(t, dash.Metrics, 3)
	require.Equal(t, StatusOptimal, dash.Metrics[0].Status)
	require.Equal(t, StatusWarning, dash.Metrics[1].Status)
	require.Equal(t, StatusCritical, dash.Metrics[2].Status)
	require.Equal(t, 1, dash.System.SensorsActive)
	require.Equal(t, 2, dash.System.SensorsTotal)
	require.Equal(t, "degraded", dash.System.Connectivity)
	require.Equal(t, "auto", dash.Irrigation.Mode)
	require.Equal(t, 45, dash.Irrigation.DurationMinutes)
	require.True(t, dash.Irrigation.NeedsWater)
	require.Equal(t, time.Date(2024, 7, 9, 6, 0, 0, 0, time.UTC), dash.Irrigation.NextSchedule)
}

func TestNewServiceConfigDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	unset := NewService(Config{}, nil, nil, nil, logger).(*service)
	require.Equal(t, DefaultConfig(), unset.cfg)

	midnight := NewService(Config{WarningBand: 2, ScheduleHour: 0}, nil, nil, nil, logger).(*service)
	require.Equal(t, 0, midnight.cfg.ScheduleHour)
	require.Equal(t, 2.0, midnight.cfg.WarningBand)
	require.Equal(t, DefaultConfig().SoilMoisture, midnight.cfg.SoilMoisture)
}

func newTestService(repo Repository, devices Devices, pub events.Publisher) *service {
	svc := NewService(Config{}, repo, devices, pub, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	now := time.Date(2024, 7, 8, 14, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

type memoryRepo struct {
	readings []Reading
}

func (m *memoryRepo) Save(_ context.Context, r Reading) error {
	m.readings = append(m.readings, r)
	return nil
}

func (m *memoryRepo) Latest(_ context.Context, userID int64) (Reading, bool, error) {
	for i := len(m.readings) - 1; i >= 0; i-- {
		if m.readings[i].UserID == userID {
			return m.readings[i], true, nil
		}
	}
	return Reading{}, false, nil
}

type stubDevices struct {
	views    []device.View
	settings device.Settings
	battery  int
}

func newStubDevices() *stubDevices {
	return &stubDevices{settings: device.DefaultSettings()}
}

func (s *stubDevices) Authenticate(_ context.Context, id, key string) (device.Device, error) {
	if id != "IRR-001" || key != "secret" {
		return device.Device{}, apperrors.Wrap("unauthorized", "invalid device credentials", nil)
	}
	return device.Device{ID: id, UserID: 1}, nil
}

func (s *stubDevices) Heartbeat(_ context.Context, _ string, battery int, _ string, _ time.Time) error {
	s.battery = battery
	return nil
}

func (s *stubDevices) List(context.Context, int64) ([]device.View, error) {
	return s.views, nil
}

func (s *stubDevices) GetSettings(context.Context, int64) (device.Settings, error) {
	return s.settings, nil
}

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}
