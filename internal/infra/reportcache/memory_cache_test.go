package reportcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	cache := NewMemoryCache()
	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }

	resp := report.FixtureResponse()
	require.NoError(t, cache.Set(context.Background(), 7, resp, time.Minute))

	got, ok, err := cache.Get(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, resp.Weekly.TotalWaterUsed, got.Weekly.TotalWaterUsed)

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok, err = cache.Get(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), 3, report.Response{RecordCount: 4}, 0))
	require.NoError(t, cache.Delete(context.Background(), 3))

	_, ok, err := cache.Get(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReportInvalidator_NilSafe(t *testing.T) {
	var inv *ReportInvalidator
	require.NoError(t, inv.Invalidate(context.Background(), 1))
}
