package devicerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
)

// MemoryRepository keeps devices and settings in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	devices  map[string]device.Device
	settings map[int64]device.Settings
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		devices:  make(map[string]device.Device),
		settings: make(map[int64]device.Settings),
	}
}

// Create stores a new device.
func (r *MemoryRepository) Create(_ context.Context, d device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.devices[d.ID]; exists {
		return device.ErrDeviceExists
	}
	r.devices[d.ID] = d
	return nil
}

// Get fetches a device by id.
func (r *MemoryRepository) Get(_ context.Context, deviceID string) (device.Device, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[deviceID]
	return d, ok, nil
}

// ListByUser returns a user's devices ordered by registration time.
func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]device.Device, 0)
	for _, d := range r.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a device owned by userID.
func (r *MemoryRepository) Delete(_ context.Context, userID int64, deviceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok || d.UserID != userID {
		return false, nil
	}
	delete(r.devices, deviceID)
	return true, nil
}

// Touch records a heartbeat.
func (r *MemoryRepository) Touch(_ context.Context, deviceID string, battery int, signal string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return nil
	}
	d.Battery = battery
	d.Signal = signal
	if at.After(d.LastSeen) {
		d.LastSeen = at
	}
	r.devices[deviceID] = d
	return nil
}

// GetSettings returns stored settings.
func (r *MemoryRepository) GetSettings(_ context.Context, userID int64) (device.Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[userID]
	return s, ok, nil
}

// SaveSettings replaces the user's settings.
func (r *MemoryRepository) SaveSettings(_ context.Context, userID int64, s device.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[userID] = s
	return nil
}

var (
	_ device.Repository         = (*MemoryRepository)(nil)
	_ device.SettingsRepository = (*MemoryRepository)(nil)
)
