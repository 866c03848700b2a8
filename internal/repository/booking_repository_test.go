package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

func testSlot() models.TimeSlot {
	return models.TimeSlot{
		ID:          "c1|2024-05-06|09:00:00",
		CounselorID: "c1",
		Date:        "2024-05-06",
		StartTime:   "09:00:00",
		EndTime:     "10:00:00",
	}
}

var bookingRowColumns = []string{"id", "student_id", "counselor_id", "slot_id", "slot_date", "start_time", "end_time", "status", "student_notes", "rejection_reason", "created_at", "updated_at"}

func TestCreateBookingReservesSlot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	slot := testSlot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO time_slots .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(slot.ID, slot.CounselorID, slot.Date, slot.StartTime, slot.EndTime, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = 'pending', updated_at = $2 WHERE id = $1 AND status = 'available'")).
		WithArgs(slot.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking := &models.Booking{StudentID: "s1"}
	require.NoError(t, repo.CreateBooking(context.Background(), slot, booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, slot.ID, booking.SlotID)
	assert.Equal(t, "c1", booking.CounselorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSlotAlreadyTaken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	slot := testSlot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO time_slots").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE time_slots SET status = 'pending'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateBooking(context.Background(), slot, &models.Booking{StudentID: "s1"})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUniqueViolationMapsToSlotTaken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO time_slots").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE time_slots SET status = 'pending'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateBooking(context.Background(), testSlot(), &models.Booking{StudentID: "s1"})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionApprovesBookingAndSlot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings b SET status = \\$2").
		WithArgs("b1", models.BookingConfirmed, nil, sqlmock.AnyArg(), models.BookingPending, "c1", "").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow("b1", "s1", "c1", "c1|2024-05-06|09:00:00", "2024-05-06", "09:00:00", "10:00:00", "confirmed", nil, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4")).
		WithArgs("c1|2024-05-06|09:00:00", models.SlotBooked, sqlmock.AnyArg(), models.SlotPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := repo.Transition(context.Background(), BookingTransition{
		BookingID:   "b1",
		CounselorID: "c1",
		From:        models.BookingPending,
		To:          models.BookingConfirmed,
		SlotFrom:    models.SlotPending,
		SlotTo:      models.SlotBooked,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRollsBackWhenSlotStateDiffers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings b SET status").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow("b1", "s1", "c1", "slot", "2024-05-06", "09:00:00", "10:00:00", "rejected", nil, "busy", now, now))
	mock.ExpectExec("UPDATE time_slots SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	reason := "busy"
	_, err := repo.Transition(context.Background(), BookingTransition{
		BookingID: "b1", From: models.BookingPending, To: models.BookingRejected,
		SlotFrom: models.SlotPending, SlotTo: models.SlotAvailable, Reason: &reason,
	})
	assert.ErrorIs(t, err, ErrStaleBooking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStaleBooking(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings b SET status").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Transition(context.Background(), BookingTransition{BookingID: "b1", From: models.BookingPending, To: models.BookingConfirmed})
	assert.ErrorIs(t, err, ErrStaleBooking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSlotsRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO time_slots").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO time_slots").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	second := testSlot()
	second.ID = "c1|2024-05-06|10:00:00"
	err := repo.EnsureSlots(context.Background(), []models.TimeSlot{testSlot(), second})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableSlots(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("FROM time_slots WHERE counselor_id = \\$1 AND slot_date = \\$2 AND status = 'available' ORDER BY start_time").
		WithArgs("c1", "2024-05-06").
		WillReturnRows(sqlmock.NewRows([]string{"id", "counselor_id", "slot_date", "start_time", "end_time", "status"}).
			AddRow("c1|2024-05-06|09:00:00", "c1", "2024-05-06", "09:00:00", "10:00:00", "available"))

	slots, err := repo.ListAvailableSlots(context.Background(), "c1", "2024-05-06")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "2024-05-06", slots[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookingsByCounselor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	now := time.Now()

	columns := append(append([]string{}, bookingRowColumns...), "student_name", "student_number")
	mock.ExpectQuery("FROM bookings b JOIN students s ON s.id = b.student_id").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b1", "s1", "c1", "slot", "2024-05-06", "09:00:00", "10:00:00", "pending", "notes", nil, now, now, "Asha", "ST-1"))

	bookings, err := repo.ListByCounselor(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Asha", bookings[0].StudentName)
	assert.Equal(t, "ST-1", bookings[0].StudentNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
