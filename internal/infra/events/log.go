package events

import (
	"context"
	"log/slog"

	domain "github.com/yanqian/smart-irrigation/internal/domain/events"
)

// LogPublisher records events in the application log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs the publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "events.log")}
}

// Publish logs the event at debug level.
func (p *LogPublisher) Publish(_ context.Context, evt domain.Event) error {
	p.logger.Debug("domain event", "type", evt.Type, "user_id", evt.UserID, "key", evt.Key)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }

var _ domain.Publisher = (*LogPublisher)(nil)
