package events

import (
	"context"
	"time"
)

// Booking lifecycle event types.
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingRejected  = "booking.rejected"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent describes a state change of a counseling booking.
type BookingEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	StudentID   string    `json:"student_id"`
	CounselorID string    `json:"counselor_id"`
	SlotID      string    `json:"slot_id"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher delivers booking events to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}
