package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/repository"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/events"
)

type fakeIdentity struct {
	student   *models.Student
	counselor *models.Counselor
	institute *models.Institute
	calls     int
}

func (f *fakeIdentity) Student(ctx context.Context, claims *models.JWTClaims) (*models.Student, error) {
	f.calls++
	if f.student == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student profile not found")
	}
	s := *f.student
	return &s, nil
}

func (f *fakeIdentity) Counselor(ctx context.Context, claims *models.JWTClaims) (*models.Counselor, error) {
	f.calls++
	if f.counselor == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "counselor profile not found")
	}
	c := *f.counselor
	return &c, nil
}

func (f *fakeIdentity) Institute(ctx context.Context, claims *models.JWTClaims) (*models.Institute, error) {
	f.calls++
	if f.institute == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "institute profile not found")
	}
	i := *f.institute
	return &i, nil
}

type fakeCounselorStore struct {
	byID      map[string]models.Counselor
	listErr   error
	created   []*models.Counselor
	activeSet map[string]bool
	calls     int
}

func (f *fakeCounselorStore) FindByID(ctx context.Context, id string) (*models.Counselor, error) {
	f.calls++
	c, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (f *fakeCounselorStore) ListActiveByInstitute(ctx context.Context, instituteID string) ([]models.Counselor, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Counselor
	for _, c := range f.byID {
		if c.InstituteID == instituteID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCounselorStore) ListByInstitute(ctx context.Context, instituteID string) ([]models.Counselor, error) {
	var out []models.Counselor
	for _, c := range f.byID {
		if c.InstituteID == instituteID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCounselorStore) ListActive(ctx context.Context) ([]models.Counselor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Counselor
	for _, c := range f.byID {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCounselorStore) CreateWithUser(ctx context.Context, user *models.User, counselor *models.Counselor) error {
	user.ID = "user-new"
	counselor.ID = "counselor-new"
	counselor.UserID = user.ID
	f.created = append(f.created, counselor)
	return nil
}

func (f *fakeCounselorStore) SetActive(ctx context.Context, id string, active bool) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	if f.activeSet == nil {
		f.activeSet = make(map[string]bool)
	}
	f.activeSet[id] = active
	return nil
}

type fakeAvailability struct {
	rows     map[string][]models.Availability
	upserted []models.Availability
	err      error
}

func (f *fakeAvailability) ListByCounselor(ctx context.Context, counselorID string) ([]models.Availability, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[counselorID], nil
}

func (f *fakeAvailability) Upsert(ctx context.Context, counselorID string, rows []models.Availability) error {
	f.upserted = rows
	if f.rows == nil {
		f.rows = make(map[string][]models.Availability)
	}
	f.rows[counselorID] = rows
	return nil
}

type fakeBookingStore struct {
	mu          sync.Mutex
	ensured     []models.TimeSlot
	available   []models.TimeSlot
	createErr   error
	created     []*models.Booking
	bookings    map[string]models.Booking
	transitions []repository.BookingTransition
	transErr    error
	counselor   []models.CounselorBooking
	student     []models.StudentBooking
	institute   []models.InstituteBooking
	calls       int
}

func (f *fakeBookingStore) EnsureSlots(ctx context.Context, slots []models.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ensured = append(f.ensured, slots...)
	return nil
}

func (f *fakeBookingStore) ListAvailableSlots(ctx context.Context, counselorID, date string) ([]models.TimeSlot, error) {
	f.calls++
	return f.available, nil
}

func (f *fakeBookingStore) CreateBooking(ctx context.Context, slot models.TimeSlot, booking *models.Booking) error {
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	booking.ID = "booking-new"
	booking.CounselorID = slot.CounselorID
	booking.SlotID = slot.ID
	booking.SlotDate = slot.Date
	booking.StartTime = slot.StartTime
	booking.EndTime = slot.EndTime
	booking.Status = models.BookingPending
	f.created = append(f.created, booking)
	return nil
}

func (f *fakeBookingStore) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	f.calls++
	b, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (f *fakeBookingStore) Transition(ctx context.Context, t repository.BookingTransition) (*models.Booking, error) {
	f.calls++
	f.transitions = append(f.transitions, t)
	if f.transErr != nil {
		return nil, f.transErr
	}
	b := f.bookings[t.BookingID]
	b.Status = t.To
	if t.Reason != nil {
		b.RejectionReason = t.Reason
	}
	f.bookings[t.BookingID] = b
	return &b, nil
}

func (f *fakeBookingStore) ListByCounselor(ctx context.Context, counselorID string) ([]models.CounselorBooking, error) {
	return f.counselor, nil
}

func (f *fakeBookingStore) ListByStudent(ctx context.Context, studentID string) ([]models.StudentBooking, error) {
	return f.student, nil
}

func (f *fakeBookingStore) ListByInstitute(ctx context.Context, instituteID string) ([]models.InstituteBooking, error) {
	return f.institute, nil
}

type fakeDispatcher struct {
	events []events.BookingEvent
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, event events.BookingEvent) {
	f.events = append(f.events, event)
}

type fakeRoster struct {
	invalidated []string
}

func (f *fakeRoster) Roster(ctx context.Context, instituteID string) ([]models.Counselor, bool) {
	return nil, false
}

func (f *fakeRoster) StoreRoster(ctx context.Context, instituteID string, counselors []models.Counselor) {}

func (f *fakeRoster) InvalidateRoster(ctx context.Context, instituteID string) error {
	f.invalidated = append(f.invalidated, instituteID)
	return nil
}

type fakeAccounts struct {
	taken  map[string]bool
	audits []*models.AuditLog
}

func (f *fakeAccounts) EmailExists(ctx context.Context, email string) (bool, error) {
	return f.taken[email], nil
}

func (f *fakeAccounts) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, log)
	return nil
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-student", Role: models.RoleStudent}
}

func counselorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-counselor", Role: models.RoleCounselor}
}

func instituteClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-institute", Role: models.RoleInstitute}
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}
