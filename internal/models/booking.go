package models

import "time"

// BookingStatus tracks a booking through its approval workflow.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected},
	BookingConfirmed: {BookingCancelled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is a student's reservation against a slot.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"student_id"`
	CounselorID     string        `db:"counselor_id" json:"counselor_id"`
	SlotID          string        `db:"slot_id" json:"slot_id"`
	SlotDate        string        `db:"slot_date" json:"slot_date"`
	StartTime       string        `db:"start_time" json:"start_time"`
	EndTime         string        `db:"end_time" json:"end_time"`
	Status          BookingStatus `db:"status" json:"status"`
	StudentNotes    *string       `db:"student_notes" json:"student_notes,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentBooking is a booking as the student sees it.
type StudentBooking struct {
	Booking
	CounselorName       string `db:"counselor_name" json:"counselor_name"`
	CounselorSpeciality string `db:"counselor_speciality" json:"counselor_speciality"`
}

// CounselorBooking is a booking as the counselor sees it.
type CounselorBooking struct {
	Booking
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}

// InstituteBooking is a booking in the institute overview.
type InstituteBooking struct {
	Booking
	StudentName   string `db:"student_name" json:"student_name"`
	CounselorName string `db:"counselor_name" json:"counselor_name"`
}
