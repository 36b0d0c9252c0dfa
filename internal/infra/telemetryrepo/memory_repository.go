package telemetryrepo

import (
	"context"
	"sync"

	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
)

const defaultRetain = 1000

// MemoryRepository keeps a bounded window of readings per user.
type MemoryRepository struct {
	mu       sync.RWMutex
	retain   int
	readings map[int64][]telemetry.Reading
}

// NewMemoryRepository constructs a repository keeping up to retain readings per user.
func NewMemoryRepository(retain int) *MemoryRepository {
	if retain <= 0 {
		retain = defaultRetain
	}
	return &MemoryRepository{retain: retain, readings: make(map[int64][]telemetry.Reading)}
}

// Save appends a reading.
func (r *MemoryRepository) Save(_ context.Context, reading telemetry.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.readings[reading.UserID], reading)
	if len(list) > r.retain {
		list = list[len(list)-r.retain:]
	}
	r.readings[reading.UserID] = list
	return nil
}

// Latest returns the reading with the newest timestamp.
func (r *MemoryRepository) Latest(_ context.Context, userID int64) (telemetry.Reading, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.readings[userID]
	if len(list) == 0 {
		return telemetry.Reading{}, false, nil
	}
	latest := list[0]
	for _, reading := range list[1:] {
		if !reading.RecordedAt.Before(latest.RecordedAt) {
			latest = reading
		}
	}
	return latest, true, nil
}

var _ telemetry.Repository = (*MemoryRepository)(nil)
