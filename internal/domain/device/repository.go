package device

import (
	"context"
	"time"
)

// Repository persists registered devices.
type Repository interface {
	// Create stores a new device, returning ErrDeviceExists when the id is taken.
	Create(ctx context.Context, d Device) error
	Get(ctx context.Context, deviceID string) (Device, bool, error)
	ListByUser(ctx context.Context, userID int64) ([]Device, error)
	Delete(ctx context.Context, userID int64, deviceID string) (bool, error)
	Touch(ctx context.Context, deviceID string, battery int, signal string, at time.Time) error
}

// SettingsRepository persists per-user irrigation settings.
type SettingsRepository interface {
	GetSettings(ctx context.Context, userID int64) (Settings, bool, error)
	SaveSettings(ctx context.Context, userID int64, s Settings) error
}
