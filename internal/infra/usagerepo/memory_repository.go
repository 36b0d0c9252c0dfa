package usagerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

// MemoryRepository keeps usage records in process memory for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[int64]map[string]usage.DailyUsageRecord
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[int64]map[string]usage.DailyUsageRecord)}
}

// Upsert stores one record per user and date.
func (r *MemoryRepository) Upsert(_ context.Context, userID int64, rec usage.DailyUsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDate, ok := r.records[userID]
	if !ok {
		byDate = make(map[string]usage.DailyUsageRecord)
		r.records[userID] = byDate
	}
	byDate[rec.Date] = rec
	return nil
}

// ListSince returns records dated on or after since, oldest first.
func (r *MemoryRepository) ListSince(_ context.Context, userID int64, since time.Time) ([]usage.DailyUsageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := since.UTC().Format(util.DateLayout)
	out := make([]usage.DailyUsageRecord, 0, len(r.records[userID]))
	for date, rec := range r.records[userID] {
		if date >= cutoff {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Delete removes a single day.
func (r *MemoryRepository) Delete(_ context.Context, userID int64, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[userID][date]; !ok {
		return false, nil
	}
	delete(r.records[userID], date)
	return true, nil
}

var _ usage.Repository = (*MemoryRepository)(nil)
