package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher records events in the application log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event BookingEvent) error {
	p.logger.Info("booking event",
		zap.String("type", event.Type),
		zap.String("booking_id", event.BookingID),
		zap.String("status", event.Status),
		zap.String("slot_id", event.SlotID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
