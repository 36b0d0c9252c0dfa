package telemetry

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
	"github.com/yanqian/smart-irrigation/internal/domain/events"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

// maxClockSkew bounds how far into the future a device timestamp may be.
const maxClockSkew = 5 * time.Minute

// Service ingests sensor readings and renders the dashboard.
type Service interface {
	Ingest(ctx context.Context, creds Credentials, req ReadingRequest) (Reading, error)
	Dashboard(ctx context.Context, userID int64) (Dashboard, error)
	Latest(ctx context.Context, userID int64) (Reading, bool, error)
}

type service struct {
	cfg       Config
	repo      Repository
	devices   Devices
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the telemetry domain. publisher may be nil.
func NewService(cfg Config, repo Repository, devices Devices, publisher events.Publisher, logger *slog.Logger) Service {
	def := DefaultConfig()
	if cfg == (Config{}) {
		cfg = def
	}
	if cfg.SoilMoisture == (Range{}) {
		cfg.SoilMoisture = def.SoilMoisture
	}
	if cfg.Temperature == (Range{}) {
		cfg.Temperature = def.Temperature
	}
	if cfg.Humidity == (Range{}) {
		cfg.Humidity = def.Humidity
	}
	if cfg.WarningBand <= 0 {
		cfg.WarningBand = def.WarningBand
	}
	if cfg.ScheduleHour < 0 || cfg.ScheduleHour > 23 {
		cfg.ScheduleHour = def.ScheduleHour
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		devices:   devices,
		publisher: publisher,
		logger:    logger.With("component", "telemetry.service"),
		now:       util.NowUTC,
	}
}

func (s *service) Ingest(ctx context.Context, creds Credentials, req ReadingRequest) (Reading, error) {
	d, err := s.devices.Authenticate(ctx, creds.DeviceID, creds.APIKey)
	if err != nil {
		return Reading{}, err
	}
	if err := validateReading(req); err != nil {
		return Reading{}, err
	}
	now := s.now()
	at := req.Timestamp.UTC()
	if req.Timestamp.IsZero() {
		at = now
	}
	if at.After(now.Add(maxClockSkew)) {
		return Reading{}, apperrors.Wrap("invalid_input", "timestamp is in the future", nil)
	}

	reading := Reading{
		ID:           uuid.NewString(),
		DeviceID:     d.ID,
		UserID:       d.UserID,
		SoilMoisture: req.SoilMoisture,
		Temperature:  req.Temperature,
		Humidity:     req.Humidity,
		Battery:      req.Battery,
		Signal:       strings.ToLower(strings.TrimSpace(req.Signal)),
		RecordedAt:   at,
	}
	if err := s.repo.Save(ctx, reading); err != nil {
		return Reading{}, apperrors.Wrap("storage_error", "failed to store reading", err)
	}
	if err := s.devices.Heartbeat(ctx, d.ID, req.Battery, req.Signal, at); err != nil {
		s.logger.Warn("device heartbeat failed", "device_id", d.ID, "error", err)
	}
	s.logger.Debug("reading ingested", "device_id", d.ID, "moisture", reading.SoilMoisture)

	if critical := criticalMetrics(s.metrics(reading)); len(critical) > 0 && s.publisher != nil {
		evt := events.Event{
			Type:       events.TypeTelemetryAlert,
			UserID:     d.UserID,
			Key:        d.ID,
			Payload:    Alert{DeviceID: d.ID, Metrics: critical},
			OccurredAt: now,
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("publish telemetry alert failed", "device_id", d.ID, "error", err)
		}
	}
	return reading, nil
}

func (s *service) Latest(ctx context.Context, userID int64) (Reading, bool, error) {
	reading, found, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return Reading{}, false, apperrors.Wrap("storage_error", "failed to load latest reading", err)
	}
	return reading, found, nil
}

func (s *service) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	if userID == 0 {
		return Dashboard{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	reading, found, err := s.Latest(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	devices, err := s.devices.List(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	settings, err := s.devices.GetSettings(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	dash := Dashboard{
		Metrics:    []Metric{},
		System:     systemStatus(devices),
		Irrigation: s.irrigationControl(settings, reading, found),
		HasReading: found,
	}
	if found {
		dash.Metrics = s.metrics(reading)
		dash.System.LastUpdate = reading.RecordedAt
	}
	return dash, nil
}

func (s *service) metrics(r Reading) []Metric {
	return []Metric{
		s.metric(MetricSoilMoisture, "Soil Moisture", r.SoilMoisture, "%", s.cfg.SoilMoisture),
		s.metric(MetricTemperature, "Temperature", r.Temperature, "°C", s.cfg.Temperature),
		s.metric(MetricHumidity, "Humidity", r.Humidity, "%", s.cfg.Humidity),
	}
}

func (s *service) metric(key, title string, value float64, unit string, optimal Range) Metric {
	return Metric{
		Key:     key,
		Title:   title,
		Value:   value,
		Unit:    unit,
		Optimal: optimal,
		Status:  Classify(value, optimal, s.cfg.WarningBand),
	}
}

func (s *service) irrigationControl(settings device.Settings, r Reading, found bool) IrrigationControl {
	mode := "manual"
	if settings.Automation {
		mode = "auto"
	}
	return IrrigationControl{
		Mode:              mode,
		DurationMinutes:   settings.IrrigationDuration,
		MoistureThreshold: settings.MoistureThreshold,
		NextSchedule:      nextRun(s.now(), s.cfg.ScheduleHour),
		NeedsWater:        found && r.SoilMoisture < float64(settings.MoistureThreshold),
	}
}

// Classify buckets value against an optimal range with a warning band on either side.
func Classify(value float64, optimal Range, band float64) string {
	switch {
	case value >= optimal.Min && value <= optimal.Max:
		return StatusOptimal
	case value >= optimal.Min-band && value <= optimal.Max+band:
		return StatusWarning
	default:
		return StatusCritical
	}
}

func criticalMetrics(metrics []Metric) []Metric {
	var out []Metric
	for _, m := range metrics {
		if m.Status == StatusCritical {
			out = append(out, m)
		}
	}
	return out
}

func systemStatus(devices []device.View) SystemStatus {
	active := 0
	for _, d := range devices {
		if d.Status == device.StatusConnected {
			active++
		}
	}
	status := SystemStatus{
		System:        "online",
		SensorsActive: active,
		SensorsTotal:  len(devices),
	}
	switch {
	case len(devices) == 0:
		status.System = "idle"
		status.Connectivity = "none"
	case active == len(devices):
		status.Connectivity = "stable"
	case active == 0:
		status.System = "offline"
		status.Connectivity = "lost"
	default:
		status.Connectivity = "degraded"
	}
	return status
}

func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	return next.AddDate(0, 0, 1)
}

func validateReading(req ReadingRequest) error {
	values := []struct {
		name string
		v    float64
	}{
		{"soilMoisture", req.SoilMoisture},
		{"temperature", req.Temperature},
		{"humidity", req.Humidity},
	}
	for _, f := range values {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return apperrors.Wrap("invalid_input", f.name+" must be a finite number", nil)
		}
	}
	if req.SoilMoisture < 0 || req.SoilMoisture > 100 {
		return apperrors.Wrap("invalid_input", "soilMoisture must be between 0 and 100", nil)
	}
	if req.Humidity < 0 || req.Humidity > 100 {
		return apperrors.Wrap("invalid_input", "humidity must be between 0 and 100", nil)
	}
	if req.Temperature < -60 || req.Temperature > 80 {
		return apperrors.Wrap("invalid_input", "temperature out of sensor range", nil)
	}
	return nil
}
