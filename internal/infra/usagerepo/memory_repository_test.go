package usagerepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
)

func TestMemoryRepositoryUpsertListDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, 1, usage.DailyUsageRecord{Date: "2024-07-03", WaterUsed: 10}))
	require.NoError(t, repo.Upsert(ctx, 1, usage.DailyUsageRecord{Date: "2024-07-01", WaterUsed: 5}))
	require.NoError(t, repo.Upsert(ctx, 1, usage.DailyUsageRecord{Date: "2024-07-03", WaterUsed: 12}))
	require.NoError(t, repo.Upsert(ctx, 2, usage.DailyUsageRecord{Date: "2024-07-03", WaterUsed: 99}))

	all, err := repo.ListSince(ctx, 1, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, []usage.DailyUsageRecord{
		{Date: "2024-07-01", WaterUsed: 5},
		{Date: "2024-07-03", WaterUsed: 12},
	}, all)

	recent, err := repo.ListSince(ctx, 1, time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, recent, 1)

	found, err := repo.Delete(ctx, 1, "2024-07-01")
	require.NoError(t, err)
	require.True(t, found)
	found, err = repo.Delete(ctx, 1, "2024-07-01")
	require.NoError(t, err)
	require.False(t, found)
}
