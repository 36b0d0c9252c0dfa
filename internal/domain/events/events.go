package events

import (
	"context"
	"time"
)

// Event types published by the domain services.
const (
	TypeUsageRecorded    = "usage.recorded"
	TypeDeviceRegistered = "device.registered"
	TypeTelemetryAlert   = "telemetry.alert"
)

// Event is a domain notification fanned out to downstream consumers.
type Event struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"userId"`
	Key        string    `json:"key"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
