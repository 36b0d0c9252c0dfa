package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
)

type stubIngester struct {
	creds telemetry.Credentials
	req   telemetry.ReadingRequest
	err   error
	calls int
}

func (s *stubIngester) Ingest(_ context.Context, creds telemetry.Credentials, req telemetry.ReadingRequest) (telemetry.Reading, error) {
	s.calls++
	s.creds = creds
	s.req = req
	if s.err != nil {
		return telemetry.Reading{}, s.err
	}
	return telemetry.Reading{ID: "r-1", DeviceID: creds.DeviceID}, nil
}

func TestHandleMessage_ForwardsReading(t *testing.T) {
	ingester := &stubIngester{}
	sub := NewSubscriber(Config{Broker: "tcp://localhost:1883"}, ingester, newTestLogger())

	payload := []byte(`{"apiKey":"secret","soilMoisture":64.5,"temperature":27,"humidity":70,"battery":88,"signal":"good"}`)
	err := sub.HandleMessage(context.Background(), "irrigation/field-01/telemetry", payload)
	require.NoError(t, err)
	require.Equal(t, 1, ingester.calls)
	require.Equal(t, "field-01", ingester.creds.DeviceID)
	require.Equal(t, "secret", ingester.creds.APIKey)
	require.Equal(t, "field-01", ingester.req.DeviceID)
	require.InDelta(t, 64.5, ingester.req.SoilMoisture, 0.001)
}

func TestHandleMessage_Rejects(t *testing.T) {
	ingester := &stubIngester{}
	sub := NewSubscriber(Config{}, ingester, newTestLogger())

	require.Error(t, sub.HandleMessage(context.Background(), "irrigation/telemetry", []byte(`{}`)))
	require.Error(t, sub.HandleMessage(context.Background(), "irrigation/a1b/telemetry", []byte(`not json`)))
	require.Error(t, sub.HandleMessage(context.Background(), "irrigation/a1b/telemetry", []byte(`{"deviceId":"other"}`)))
	require.Zero(t, ingester.calls)

	ingester.err = errors.New("unauthorized")
	require.Error(t, sub.HandleMessage(context.Background(), "irrigation/a1b/telemetry", []byte(`{"apiKey":"x"}`)))
}

func TestStart_RequiresBroker(t *testing.T) {
	sub := NewSubscriber(Config{}, &stubIngester{}, newTestLogger())
	require.Error(t, sub.Start(context.Background()))
	require.Equal(t, DefaultTopic, sub.cfg.Topic)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
