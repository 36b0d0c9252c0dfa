package telemetry

import (
	"context"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
)

// Repository persists telemetry readings.
type Repository interface {
	Save(ctx context.Context, r Reading) error
	// Latest returns the newest reading across all of the user's devices.
	Latest(ctx context.Context, userID int64) (Reading, bool, error)
}

// Devices is the slice of the device domain telemetry depends on.
type Devices interface {
	Authenticate(ctx context.Context, deviceID, apiKey string) (device.Device, error)
	Heartbeat(ctx context.Context, deviceID string, battery int, signal string, at time.Time) error
	List(ctx context.Context, userID int64) ([]device.View, error)
	GetSettings(ctx context.Context, userID int64) (device.Settings, error)
}
