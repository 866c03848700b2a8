package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

var (
	// ErrSlotTaken is returned when a reservation loses the race for a slot.
	ErrSlotTaken = errors.New("slot no longer available")
	// ErrStaleBooking is returned when a booking or its slot is not in the expected state.
	ErrStaleBooking = errors.New("booking state changed")
)

const uniqueViolation = "23505"

const bookingColumns = `b.id, b.student_id, b.counselor_id, b.slot_id, b.slot_date::text AS slot_date,
b.start_time::text AS start_time, b.end_time::text AS end_time, b.status, b.student_notes,
b.rejection_reason, b.created_at, b.updated_at`

// BookingRepository owns time slots and the bookings reserved against them.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookingTransition describes one guarded move of a booking and its slot.
type BookingTransition struct {
	BookingID   string
	CounselorID string
	StudentID   string
	From        models.BookingStatus
	To          models.BookingStatus
	SlotFrom    models.SlotStatus
	SlotTo      models.SlotStatus
	Reason      *string
}

const ensureSlotQuery = `INSERT INTO time_slots (id, counselor_id, slot_date, start_time, end_time, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 'available', $6, $6)
ON CONFLICT (id) DO NOTHING`

func ensureSlot(ctx context.Context, exec sqlx.ExecerContext, slot models.TimeSlot, now time.Time) error {
	if _, err := exec.ExecContext(ctx, ensureSlotQuery, slot.ID, slot.CounselorID, slot.Date, slot.StartTime, slot.EndTime, now); err != nil {
		return fmt.Errorf("ensure slot %s: %w", slot.ID, err)
	}
	return nil
}

// EnsureSlots materializes generated slots. Existing rows keep their status.
func (r *BookingRepository) EnsureSlots(ctx context.Context, slots []models.TimeSlot) (err error) {
	if len(slots) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ensure slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, slot := range slots {
		if err = ensureSlot(ctx, tx, slot, now); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ensure slots: %w", err)
	}
	return nil
}

// ListAvailableSlots returns unbooked slots of a counselor on a date ordered by start time.
func (r *BookingRepository) ListAvailableSlots(ctx context.Context, counselorID, date string) ([]models.TimeSlot, error) {
	const query = `SELECT id, counselor_id, slot_date::text AS slot_date, start_time::text AS start_time, end_time::text AS end_time, status
FROM time_slots WHERE counselor_id = $1 AND slot_date = $2 AND status = 'available' ORDER BY start_time`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, counselorID, date); err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

// CreateBooking reserves slot for the booking atomically: the slot row is
// materialized if missing, flipped available→pending, then the pending
// booking is inserted. Losing the race yields ErrSlotTaken.
func (r *BookingRepository) CreateBooking(ctx context.Context, slot models.TimeSlot, booking *models.Booking) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if err = ensureSlot(ctx, tx, slot, now); err != nil {
		return err
	}

	const reserve = `UPDATE time_slots SET status = 'pending', updated_at = $2 WHERE id = $1 AND status = 'available'`
	res, err := tx.ExecContext(ctx, reserve, slot.ID, now)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve slot rows: %w", err)
	}
	if affected == 0 {
		err = ErrSlotTaken
		return err
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	booking.SlotID = slot.ID
	booking.CounselorID = slot.CounselorID
	booking.SlotDate = slot.Date
	booking.StartTime = slot.StartTime
	booking.EndTime = slot.EndTime
	booking.Status = models.BookingPending
	booking.CreatedAt = now
	booking.UpdatedAt = now

	const insert = `INSERT INTO bookings (id, student_id, counselor_id, slot_id, slot_date, start_time, end_time, status, student_notes, created_at, updated_at)
VALUES (:id, :student_id, :counselor_id, :slot_id, :slot_date, :start_time, :end_time, :status, :student_notes, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, booking); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			err = ErrSlotTaken
			return err
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// FindByID returns a booking by identifier.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &booking, nil
}

// Transition applies a booking status change together with its slot change.
// Both updates are compare-and-swap; if either finds an unexpected state the
// whole transaction rolls back with ErrStaleBooking.
func (r *BookingRepository) Transition(ctx context.Context, t BookingTransition) (booking *models.Booking, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const update = `UPDATE bookings b SET status = $2, rejection_reason = COALESCE($3, b.rejection_reason), updated_at = $4
WHERE b.id = $1 AND b.status = $5 AND ($6 = '' OR b.counselor_id::text = $6) AND ($7 = '' OR b.student_id::text = $7)
RETURNING ` + bookingColumns
	var updated models.Booking
	if err = tx.GetContext(ctx, &updated, update, t.BookingID, t.To, t.Reason, now, t.From, t.CounselorID, t.StudentID); err != nil {
		if err == sql.ErrNoRows {
			err = ErrStaleBooking
			return nil, err
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	const slotUpdate = `UPDATE time_slots SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, slotUpdate, updated.SlotID, t.SlotTo, now, t.SlotFrom)
	if err != nil {
		return nil, fmt.Errorf("update slot status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update slot rows: %w", err)
	}
	if affected == 0 {
		err = ErrStaleBooking
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking transition: %w", err)
	}
	return &updated, nil
}

// ListByStudent returns a student's bookings with counselor details, newest first.
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentBooking, error) {
	const query = `SELECT ` + bookingColumns + `, c.full_name AS counselor_name, c.speciality AS counselor_speciality
FROM bookings b JOIN counselors c ON c.id = b.counselor_id
WHERE b.student_id = $1 ORDER BY b.created_at DESC`
	var bookings []models.StudentBooking
	if err := r.db.SelectContext(ctx, &bookings, query, studentID); err != nil {
		return nil, fmt.Errorf("list student bookings: %w", err)
	}
	return bookings, nil
}

// ListByCounselor returns a counselor's bookings with student details, newest first.
func (r *BookingRepository) ListByCounselor(ctx context.Context, counselorID string) ([]models.CounselorBooking, error) {
	const query = `SELECT ` + bookingColumns + `, s.full_name AS student_name, s.student_number AS student_number
FROM bookings b JOIN students s ON s.id = b.student_id
WHERE b.counselor_id = $1 ORDER BY b.created_at DESC`
	var bookings []models.CounselorBooking
	if err := r.db.SelectContext(ctx, &bookings, query, counselorID); err != nil {
		return nil, fmt.Errorf("list counselor bookings: %w", err)
	}
	return bookings, nil
}

// ListByInstitute returns every booking made with the institute's counselors, newest first.
func (r *BookingRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.InstituteBooking, error) {
	const query = `SELECT ` + bookingColumns + `, s.full_name AS student_name, c.full_name AS counselor_name
FROM bookings b
JOIN counselors c ON c.id = b.counselor_id
JOIN students s ON s.id = b.student_id
WHERE c.institute_id = $1 ORDER BY b.created_at DESC`
	var bookings []models.InstituteBooking
	if err := r.db.SelectContext(ctx, &bookings, query, instituteID); err != nil {
		return nil, fmt.Errorf("list institute bookings: %w", err)
	}
	return bookings, nil
}
