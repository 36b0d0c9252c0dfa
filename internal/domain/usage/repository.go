package usage

import (
	"context"
	"time"
)

// Repository persists daily usage records.
type Repository interface {
	Upsert(ctx context.Context, userID int64, rec DailyUsageRecord) error
	// ListSince returns the user's records dated on or after since, oldest first.
	ListSince(ctx context.Context, userID int64, since time.Time) ([]DailyUsageRecord, error)
	Delete(ctx context.Context, userID int64, date string) (bool, error)
}

// Invalidator drops derived data after a user's records change.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}
