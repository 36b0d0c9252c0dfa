package device

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/smart-irrigation/internal/domain/events"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

const (
	defaultOfflineAfter = 15 * time.Minute
	defaultAPIKeyLength = 32
	maxNameLength       = 64
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,32}$`)

// Service exposes device registration and field settings.
type Service interface {
	Register(ctx context.Context, userID int64, req RegisterRequest) (RegisterResponse, error)
	List(ctx context.Context, userID int64) ([]View, error)
	Remove(ctx context.Context, userID int64, deviceID string) error
	Authenticate(ctx context.Context, deviceID, apiKey string) (Device, error)
	Heartbeat(ctx context.Context, deviceID string, battery int, signal string, at time.Time) error
	GetSettings(ctx context.Context, userID int64) (Settings, error)
	SaveSettings(ctx context.Context, userID int64, s Settings) (Settings, error)
	Options() Options
}

type service struct {
	cfg       Config
	repo      Repository
	settings  SettingsRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the device domain. publisher may be nil.
func NewService(cfg Config, repo Repository, settings SettingsRepository, publisher events.Publisher, logger *slog.Logger) Service {
	if cfg.OfflineAfter <= 0 {
		cfg.OfflineAfter = defaultOfflineAfter
	}
	if cfg.APIKeyLength <= 0 {
		cfg.APIKeyLength = defaultAPIKeyLength
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		settings:  settings,
		publisher: publisher,
		logger:    logger.With("component", "device.service"),
		now:       util.NowUTC,
	}
}

func (s *service) Register(ctx context.Context, userID int64, req RegisterRequest) (RegisterResponse, error) {
	if userID == 0 {
		return RegisterResponse{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	id := strings.TrimSpace(req.DeviceID)
	if !deviceIDPattern.MatchString(id) {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "deviceId must be 3-32 letters, digits or dashes", nil)
	}
	name := strings.TrimSpace(req.DeviceName)
	if name == "" {
		name = "Device " + id
	}
	if len([]rune(name)) > maxNameLength {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "deviceName cannot exceed 64 characters", nil)
	}

	key, err := util.NewSecret(s.cfg.APIKeyLength)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("device_error", "failed to issue api key", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("device_error", "failed to hash api key", err)
	}

	now := s.now()
	d := Device{
		ID:         id,
		UserID:     userID,
		Name:       name,
		Signal:     SignalExcellent,
		Battery:    100,
		APIKeyHash: string(hash),
		LastSeen:   now,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDeviceExists) {
			return RegisterResponse{}, apperrors.Wrap("conflict", "device id already registered", err)
		}
		return RegisterResponse{}, apperrors.Wrap("storage_error", "failed to register device", err)
	}
	s.logger.Info("device registered", "user_id", userID, "device_id", id)

	if s.publisher != nil {
		evt := events.Event{
			Type:       events.TypeDeviceRegistered,
			UserID:     userID,
			Key:        id,
			Payload:    map[string]string{"deviceId": id, "name": name},
			OccurredAt: now,
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("publish device event failed", "device_id", id, "error", err)
		}
	}
	return RegisterResponse{Device: s.toView(d), APIKey: key}, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]View, error) {
	if userID == 0 {
		return nil, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	devices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap("storage_error", "failed to list devices", err)
	}
	views := make([]View, 0, len(devices))
	for _, d := range devices {
		views = append(views, s.toView(d))
	}
	return views, nil
}

func (s *service) Remove(ctx context.Context, userID int64, deviceID string) error {
	if userID == 0 {
		return apperrors.Wrap("unauthorized", "missing user", nil)
	}
	found, err := s.repo.Delete(ctx, userID, strings.TrimSpace(deviceID))
	if err != nil {
		return apperrors.Wrap("storage_error", "failed to remove device", err)
	}
	if !found {
		return apperrors.Wrap("not_found", "device not found", nil)
	}
	s.logger.Info("device removed", "user_id", userID, "device_id", deviceID)
	return nil
}

func (s *service) Authenticate(ctx context.Context, deviceID, apiKey string) (Device, error) {
	if strings.TrimSpace(deviceID) == "" || strings.TrimSpace(apiKey) == "" {
		return Device{}, apperrors.Wrap("unauthorized", "device credentials missing", nil)
	}
	d, found, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return Device{}, apperrors.Wrap("storage_error", "failed to load device", err)
	}
	if !found {
		return Device{}, apperrors.Wrap("unauthorized", "invalid device credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.APIKeyHash), []byte(apiKey)); err != nil {
		return Device{}, apperrors.Wrap("unauthorized", "invalid device credentials", nil)
	}
	return d, nil
}

func (s *service) Heartbeat(ctx context.Context, deviceID string, battery int, signal string, at time.Time) error {
	if at.IsZero() {
		at = s.now()
	}
	battery = clampBattery(battery)
	signal = normalizeSignal(signal)
	if err := s.repo.Touch(ctx, deviceID, battery, signal, at); err != nil {
		return apperrors.Wrap("storage_error", "failed to update device heartbeat", err)
	}
	return nil
}

func (s *service) GetSettings(ctx context.Context, userID int64) (Settings, error) {
	if userID == 0 {
		return Settings{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	stored, found, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return Settings{}, apperrors.Wrap("storage_error", "failed to load settings", err)
	}
	if !found {
		return DefaultSettings(), nil
	}
	return stored, nil
}

func (s *service) SaveSettings(ctx context.Context, userID int64, in Settings) (Settings, error) {
	if userID == 0 {
		return Settings{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	normalized, err := normalizeSettings(in)
	if err != nil {
		return Settings{}, err
	}
	normalized.UpdatedAt = s.now()
	if err := s.settings.SaveSettings(ctx, userID, normalized); err != nil {
		return Settings{}, apperrors.Wrap("storage_error", "failed to save settings", err)
	}
	s.logger.Info("settings saved", "user_id", userID, "crop", normalized.CropType, "soil", normalized.SoilType)
	return normalized, nil
}

func (s *service) Options() Options {
	return CatalogOptions()
}

func (s *service) toView(d Device) View {
	status := StatusConnected
	if s.now().Sub(d.LastSeen) > s.cfg.OfflineAfter {
		status = StatusDisconnected
	}
	return View{
		ID:       d.ID,
		Name:     d.Name,
		Status:   status,
		Battery:  d.Battery,
		Signal:   d.Signal,
		LastSeen: d.LastSeen,
	}
}

func normalizeSettings(in Settings) (Settings, error) {
	out := in
	if math.IsNaN(out.FieldSize) || math.IsInf(out.FieldSize, 0) || out.FieldSize < 0 {
		return Settings{}, apperrors.Wrap("invalid_input", "fieldSize must be a non-negative number", nil)
	}
	out.CropType = strings.TrimSpace(out.CropType)
	if out.CropType != "" {
		idx := slices.IndexFunc(cropTypes, func(c string) bool { return strings.EqualFold(c, out.CropType) })
		if idx < 0 {
			return Settings{}, apperrors.Wrap("invalid_input", "unsupported cropType", nil)
		}
		out.CropType = cropTypes[idx]
	}
	out.SoilType = strings.ToLower(strings.TrimSpace(out.SoilType))
	if out.SoilType == "" {
		out.SoilType = DefaultSoilType
	}
	if !slices.ContainsFunc(soilTypes, func(st SoilType) bool { return st.Value == out.SoilType }) {
		return Settings{}, apperrors.Wrap("invalid_input", "soilType must be sand, loam, clay or silt", nil)
	}
	if out.IrrigationDuration == 0 {
		out.IrrigationDuration = DefaultIrrigationDuration
	}
	if out.IrrigationDuration < minIrrigationDuration || out.IrrigationDuration > maxIrrigationDuration {
		return Settings{}, apperrors.Wrap("invalid_input", "irrigationDuration must be between 1 and 240 minutes", nil)
	}
	if out.MoistureThreshold < 0 || out.MoistureThreshold > 100 {
		return Settings{}, apperrors.Wrap("invalid_input", "moistureThreshold must be between 0 and 100", nil)
	}
	return out, nil
}

func clampBattery(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func normalizeSignal(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case SignalExcellent:
		return SignalExcellent
	case SignalGood, "":
		return SignalGood
	case SignalFair:
		return SignalFair
	default:
		return SignalPoor
	}
}
