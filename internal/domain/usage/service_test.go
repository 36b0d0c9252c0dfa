package usage

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/events"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

func TestServiceRecordUpsertsAndNotifies(t *testing.T) {
	repo := newMemoryRepo()
	inv := &countingInvalidator{}
	pub := &capturePublisher{}
	svc := newTestService(repo, inv, pub)

	rec, err := svc.Record(context.Background(), 1, RecordRequest{
		Date:            "2024-07-01",
		WaterUsed:       25,
		WaterSaved:      5,
		IrrigationCount: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "2024-07-01", rec.Date)
	require.Equal(t, 1, inv.calls)
	require.Len(t, pub.events, 1)
	require.Equal(t, events.TypeUsageRecorded, pub.events[0].Type)
	require.Equal(t, int64(1), pub.events[0].UserID)

	_, err = svc.Record(context.Background(), 1, RecordRequest{Date: "2024-07-01", WaterUsed: 30})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultListDays, list.Days)
	require.Len(t, list.Records, 1)
	require.Equal(t, 30.0, list.Records[0].WaterUsed)
}

func TestServiceRecordValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil, nil)

	cases := []struct {
		name string
		req  RecordRequest
	}{
		{name: "bad date", req: RecordRequest{Date: "07/01/2024"}},
		{name: "future date", req: RecordRequest{Date: "2024-07-09"}},
		{name: "negative used", req: RecordRequest{Date: "2024-07-01", WaterUsed: -1}},
		{name: "nan saved", req: RecordRequest{Date: "2024-07-01", WaterSaved: math.NaN()}},
		{name: "negative count", req: RecordRequest{Date: "2024-07-01", IrrigationCount: -3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), 1, tc.req)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "invalid_input"))
		})
	}

	_, err := svc.Record(context.Background(), 0, RecordRequest{Date: "2024-07-01"})
	require.True(t, apperrors.IsCode(err, "unauthorized"))
}

func TestServiceListBoundsAndOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil)
	for _, date := range []string{"2024-07-05", "2024-06-01", "2024-07-03"} {
		_, err := svc.Record(context.Background(), 1, RecordRequest{Date: date, WaterUsed: 10})
		require.NoError(t, err)
	}

	list, err := svc.List(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, list.Records, 2)
	require.Equal(t, "2024-07-03", list.Records[0].Date)
	require.Equal(t, "2024-07-05", list.Records[1].Date)

	_, err = svc.List(context.Background(), 1, MaxListDays+1)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestServiceDelete(t *testing.T) {
	repo := newMemoryRepo()
	inv := &countingInvalidator{}
	svc := newTestService(repo, inv, nil)
	_, err := svc.Record(context.Background(), 1, RecordRequest{Date: "2024-07-05", WaterUsed: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, "2024-07-05"))
	require.Equal(t, 2, inv.calls)

	err = svc.Delete(context.Background(), 1, "2024-07-05")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestSince(t *testing.T) {
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC), Since(now, 7))
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Since(now, 1))
}

func newTestService(repo Repository, inv Invalidator, pub events.Publisher) *service {
	svc := NewService(repo, inv, pub, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.now = func() time.Time { return time.Date(2024, 7, 8, 12, 0, 0, 0, time.UTC) }
	return svc
}

type memoryRepo struct {
	records map[int64]map[string]DailyUsageRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]map[string]DailyUsageRecord)}
}

func (m *memoryRepo) Upsert(_ context.Context, userID int64, rec DailyUsageRecord) error {
	if m.records[userID] == nil {
		m.records[userID] = make(map[string]DailyUsageRecord)
	}
	m.records[userID][rec.Date] = rec
	return nil
}

func (m *memoryRepo) ListSince(_ context.Context, userID int64, since time.Time) ([]DailyUsageRecord, error) {
	cutoff := since.Format("2006-01-02")
	var out []DailyUsageRecord
	for date, rec := range m.records[userID] {
		if date >= cutoff {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memoryRepo) Delete(_ context.Context, userID int64, date string) (bool, error) {
	if _, ok := m.records[userID][date]; !ok {
		return false, nil
	}
	delete(m.records[userID], date)
	return true, nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context, int64) error {
	c.calls++
	return nil
}

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}
