package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

func TestRecommend(t *testing.T) {
	cases := []struct {
		name  string
		snap  Snapshot
		level string
		text  string
	}{
		{"rain", Snapshot{Condition: "Rain", Temperature: 35, Humidity: 10}, LevelLow, "No irrigation needed - rain expected"},
		{"hot dry", Snapshot{Condition: "Clear", Temperature: 34, Humidity: 30}, LevelHigh, "High irrigation recommended - hot and dry conditions"},
		{"windy", Snapshot{Condition: "Clear", Temperature: 27, Humidity: 50, WindSpeed: 16}, LevelMedium, "Moderate irrigation - windy conditions increase evaporation"},
		{"humid", Snapshot{Condition: "Clouds", Temperature: 22, Humidity: 85}, LevelLow, "Reduced irrigation - high humidity reduces evaporation"},
		{"normal", Snapshot{Condition: "Clouds", Temperature: 28, Humidity: 65, WindSpeed: 3.5}, LevelMedium, "Normal irrigation schedule"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Recommend(tc.snap)
			require.Equal(t, tc.level, rec.Level)
			require.Equal(t, tc.text, rec.Text)
		})
	}
}

func TestServiceCurrent(t *testing.T) {
	client := &stubClient{snap: Snapshot{City: "Pune", Condition: "Rain", Source: SourceOpenWeather}}
	svc := NewService(Config{DefaultCity: "Pune"}, client, testLogger())

	resp, err := svc.Current(context.Background(), "  ")
	require.NoError(t, err)
	require.Equal(t, "Pune", client.lastCity)
	require.Equal(t, SourceOpenWeather, resp.Snapshot.Source)
	require.Equal(t, LevelLow, resp.Recommendation.Level)
	require.Empty(t, resp.Notice)
}

func TestServiceCurrentFallsBackToMock(t *testing.T) {
	svc := NewService(Config{}, &stubClient{err: errors.New("timeout")}, testLogger())
	resp, err := svc.Current(context.Background(), "Hubli")
	require.NoError(t, err)
	require.Equal(t, SourceMock, resp.Snapshot.Source)
	require.Equal(t, "Hubli", resp.Snapshot.City)
	require.NotEmpty(t, resp.Notice)

	noClient := NewService(Config{}, nil, testLogger())
	resp, err = noClient.Current(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, defaultCity, resp.Snapshot.City)
	require.Equal(t, "Normal irrigation schedule", resp.Recommendation.Text)

	_, err = noClient.Current(context.Background(), strings.Repeat("x", 100))
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubClient struct {
	snap     Snapshot
	err      error
	lastCity string
}

func (s *stubClient) Current(_ context.Context, city string) (Snapshot, error) {
	s.lastCity = city
	if s.err != nil {
		return Snapshot{}, s.err
	}
	s.snap.ObservedAt = time.Now()
	return s.snap, nil
}
