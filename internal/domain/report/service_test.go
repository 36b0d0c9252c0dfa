package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

func TestServiceReportsComputesAndCaches(t *testing.T) {
	source := &stubSource{records: series("2024-06-01", []float64{20, 20, 20, 20, 20, 20, 20}, 0, 1)}
	cache := newStubCache()
	svc := newTestService(Config{CacheTTL: time.Minute}, source, cache, nil)

	resp, err := svc.Reports(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, SourceLedger, resp.Source)
	require.Equal(t, 17, resp.Weekly.EfficiencyPercent)
	require.Equal(t, 1, source.calls)
	require.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), source.lastSince)

	again, err := svc.Reports(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, SourceCache, again.Source)
	require.Equal(t, resp.Weekly, again.Weekly)
	require.Equal(t, 1, source.calls)

	require.NoError(t, svc.Invalidate(context.Background(), 7))
	_, err = svc.Reports(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestServiceReportsFallsBackToFixtures(t *testing.T) {
	source := &stubSource{err: errors.New("db down")}
	svc := newTestService(Config{FixtureFallback: true}, source, nil, nil)

	resp, err := svc.Reports(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, SourceFixture, resp.Source)
	require.Equal(t, 150.0, resp.Weekly.TotalWaterUsed)
	require.Equal(t, 35, resp.Yearly.EfficiencyPercent)
}

func TestServiceReportsSurfacesStorageErrorWithoutFallback(t *testing.T) {
	source := &stubSource{err: errors.New("db down")}
	svc := newTestService(Config{}, source, nil, nil)

	_, err := svc.Reports(context.Background(), 7)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "storage_error"))
}

func TestServicePeriodValidatesName(t *testing.T) {
	source := &stubSource{records: series("2024-06-01", []float64{5, 5}, 0, 1)}
	svc := newTestService(Config{}, source, nil, nil)

	summary, err := svc.Period(context.Background(), 7, "Monthly")
	require.NoError(t, err)
	require.Equal(t, 30, summary.WindowDays)
	require.Equal(t, 10.0, summary.TotalWaterUsed)

	_, err = svc.Period(context.Background(), 7, "daily")
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestServiceExportStoresCSV(t *testing.T) {
	source := &stubSource{records: series("2024-06-01", []float64{5, 7}, 1, 1)}
	storage := &stubStorage{}
	svc := newTestService(Config{}, source, nil, storage)

	res, err := svc.Export(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.Key, "reports/42/20240707-"))
	require.True(t, strings.HasSuffix(res.Key, ".csv"))
	require.Equal(t, "text/csv", res.MimeType)
	require.Equal(t, int64(len(storage.data)), res.Size)

	body := string(storage.data)
	require.Contains(t, body, "date,water_used_l,water_saved_l,irrigation_count\n2024-06-01,5,1,1\n2024-06-02,7,1,1\n")
	require.Contains(t, body, "weekly,7,12,2,2,17,14.4,3,true,")
	require.NotContains(t, body, "14.399")
	require.Contains(t, body, "yearly,30,144,24,24,")
}

func TestServiceExportRequiresStorage(t *testing.T) {
	svc := newTestService(Config{}, &stubSource{}, nil, nil)
	_, err := svc.Export(context.Background(), 42)
	require.True(t, apperrors.IsCode(err, "export_disabled"))
}

func newTestService(cfg Config, source RecordSource, cache Cache, storage ObjectStorage) *service {
	svc := NewService(cfg, source, cache, storage, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.now = func() time.Time { return time.Date(2024, 7, 7, 9, 30, 0, 0, time.UTC) }
	return svc
}

type stubSource struct {
	records   []usage.DailyUsageRecord
	err       error
	calls     int
	lastSince time.Time
}

func (s *stubSource) ListSince(_ context.Context, _ int64, since time.Time) ([]usage.DailyUsageRecord, error) {
	s.calls++
	s.lastSince = since
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type stubCache struct {
	items map[int64]Response
}

func newStubCache() *stubCache {
	return &stubCache{items: make(map[int64]Response)}
}

func (c *stubCache) Get(_ context.Context, userID int64) (Response, bool, error) {
	resp, ok := c.items[userID]
	return resp, ok, nil
}

func (c *stubCache) Set(_ context.Context, userID int64, resp Response, _ time.Duration) error {
	c.items[userID] = resp
	return nil
}

func (c *stubCache) Delete(_ context.Context, userID int64) error {
	delete(c.items, userID)
	return nil
}

type stubStorage struct {
	key  string
	data []byte
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	s.key = key
	s.data = append([]byte(nil), data...)
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType}, nil
}
