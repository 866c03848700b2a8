package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/pkg/jobs"
)

// Dispatcher hands booking events to a background queue so request handlers
// never wait on the broker.
type Dispatcher struct {
	queue     *jobs.Queue
	publisher Publisher
	logger    *zap.Logger
}

// NewDispatcher wires a publisher behind a worker queue.
func NewDispatcher(publisher Publisher, cfg jobs.QueueConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	d := &Dispatcher{publisher: publisher, logger: cfg.Logger}
	d.queue = jobs.NewQueue("booking-events", d.handle, cfg)
	return d
}

// Start launches the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop halts the workers and closes the publisher. Events still queued are
// dropped, and an in-flight publish sees its context cancelled.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
	if err := d.publisher.Close(); err != nil {
		d.logger.Warn("close event publisher", zap.Error(err))
	}
}

// Dispatch enqueues an event. Failures are logged, never returned, because
// the booking itself has already been committed.
func (d *Dispatcher) Dispatch(_ context.Context, event BookingEvent) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	job := jobs.Job{ID: event.ID, Type: event.Type, Key: event.BookingID, Payload: event}
	if err := d.queue.Enqueue(job); err != nil {
		d.logger.Warn("drop booking event", zap.String("type", event.Type), zap.String("booking_id", event.BookingID), zap.Error(err))
	}
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(BookingEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return d.publisher.Publish(ctx, event)
}
