package telemetryrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
)

func TestMemoryRepositoryLatestPicksNewestTimestamp(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	_, found, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.Save(ctx, telemetry.Reading{ID: "r2", UserID: 1, RecordedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Save(ctx, telemetry.Reading{ID: "r1", UserID: 1, RecordedAt: base}))
	require.NoError(t, repo.Save(ctx, telemetry.Reading{ID: "other", UserID: 2, RecordedAt: base.Add(2 * time.Hour)}))

	latest, found, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "r2", latest.ID)
}

func TestMemoryRepositoryRetainsBoundedWindow(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, telemetry.Reading{UserID: 1, RecordedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.Len(t, repo.readings[1], 2)

	latest, _, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, base.Add(4*time.Minute), latest.RecordedAt)
}
