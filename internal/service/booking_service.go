package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/repository"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/events"
)

type studentResolver interface {
	Student(ctx context.Context, claims *models.JWTClaims) (*models.Student, error)
}

type bookingCounselorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Counselor, error)
	ListActiveByInstitute(ctx context.Context, instituteID string) ([]models.Counselor, error)
}

type availabilityReader interface {
	ListByCounselor(ctx context.Context, counselorID string) ([]models.Availability, error)
}

type slotRepository interface {
	EnsureSlots(ctx context.Context, slots []models.TimeSlot) error
	ListAvailableSlots(ctx context.Context, counselorID, date string) ([]models.TimeSlot, error)
	CreateBooking(ctx context.Context, slot models.TimeSlot, booking *models.Booking) error
}

type bookingEventDispatcher interface {
	Dispatch(ctx context.Context, event events.BookingEvent)
}

type rosterCache interface {
	Roster(ctx context.Context, instituteID string) ([]models.Counselor, bool)
	StoreRoster(ctx context.Context, instituteID string, counselors []models.Counselor)
	InvalidateRoster(ctx context.Context, instituteID string) error
}

// BookingService is the student side of the booking workflow.
type BookingService struct {
	identity     studentResolver
	counselors   bookingCounselorRepository
	availability availabilityReader
	slots        slotRepository
	cache        rosterCache
	events       bookingEventDispatcher
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	slotDuration time.Duration
	now          func() time.Time
}

// BookingServiceDeps groups the collaborators of BookingService.
type BookingServiceDeps struct {
	Identity     studentResolver
	Counselors   bookingCounselorRepository
	Availability availabilityReader
	Slots        slotRepository
	Cache        rosterCache
	Events       bookingEventDispatcher
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	SlotDuration time.Duration
}

// NewBookingService constructs a BookingService.
func NewBookingService(deps BookingServiceDeps) *BookingService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.SlotDuration <= 0 {
		deps.SlotDuration = defaultSlotDuration
	}
	return &BookingService{
		identity:     deps.Identity,
		counselors:   deps.Counselors,
		availability: deps.Availability,
		slots:        deps.Slots,
		cache:        deps.Cache,
		events:       deps.Events,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		slotDuration: deps.SlotDuration,
		now:          time.Now,
	}
}

// ListCounselors returns the active counselors of the student's institute and
// whether they came from the roster cache. Lookup failures are logged and
// produce an empty list.
func (s *BookingService) ListCounselors(ctx context.Context, claims *models.JWTClaims) ([]models.Counselor, bool, error) {
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if cached, hit := s.cache.Roster(ctx, student.InstituteID); hit {
			return cached, true, nil
		}
	}

	counselors, err := s.counselors.ListActiveByInstitute(ctx, student.InstituteID)
	if err != nil {
		s.logger.Error("failed to list counselors", zap.String("institute_id", student.InstituteID), zap.Error(err))
		return []models.Counselor{}, false, nil
	}
	if counselors == nil {
		counselors = []models.Counselor{}
	}
	if s.cache != nil {
		s.cache.StoreRoster(ctx, student.InstituteID, counselors)
	}
	return counselors, false, nil
}

// ListAvailableSlots materializes the counselor's slots for the date and returns those still available.
func (s *BookingService) ListAvailableSlots(ctx context.Context, claims *models.JWTClaims, counselorID, rawDate string) ([]models.TimeSlot, error) {
	date, err := normalizeDate(rawDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	if _, err := s.bookableCounselor(ctx, student, counselorID); err != nil {
		return nil, err
	}

	generated, err := s.generateForDate(ctx, counselorID, date)
	if err != nil {
		return nil, err
	}
	if err := s.slots.EnsureSlots(ctx, generated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare slots")
	}

	available, err := s.slots.ListAvailableSlots(ctx, counselorID, date.Format(models.DateLayout))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return bookableSlots(generated, available, s.now().UTC()), nil
}

// bookableSlots keeps the available rows that the current template still
// generates and that start at or after now, matching what CreateBooking accepts.
func bookableSlots(generated, available []models.TimeSlot, now time.Time) []models.TimeSlot {
	offered := make(map[string]struct{}, len(generated))
	for _, slot := range generated {
		key, err := models.ParseSlotKey(slot.ID)
		if err != nil || key.Start().Before(now) {
			continue
		}
		offered[slot.ID] = struct{}{}
	}
	out := make([]models.TimeSlot, 0, len(available))
	for _, slot := range available {
		if _, ok := offered[slot.ID]; ok {
			out = append(out, slot)
		}
	}
	return out
}

// CreateBooking reserves the slot named by req.SlotID. The identifier is
// validated before any lookup; a lost race surfaces as SLOT_UNAVAILABLE.
func (s *BookingService) CreateBooking(ctx context.Context, claims *models.JWTClaims, req dto.CreateBookingRequest) (*models.Booking, error) {
	key, err := models.ParseSlotKey(strings.TrimSpace(req.SlotID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSlot.Code, appErrors.ErrInvalidSlot.Status, appErrors.ErrInvalidSlot.Message)
	}
	if key.CounselorID != req.CounselorID {
		return nil, appErrors.Clone(appErrors.ErrInvalidSlot, "slot does not belong to counselor")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if key.Start().Before(s.now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidSlot, "slot is in the past")
	}

	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	if _, err := s.bookableCounselor(ctx, student, key.CounselorID); err != nil {
		return nil, err
	}

	generated, err := s.generateForDate(ctx, key.CounselorID, key.Start())
	if err != nil {
		return nil, err
	}
	var slot *models.TimeSlot
	for i := range generated {
		if generated[i].ID == key.String() {
			slot = &generated[i]
			break
		}
	}
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidSlot, "slot is outside the counselor's availability")
	}

	booking := &models.Booking{StudentID: student.ID, StudentNotes: req.Notes}
	if err := s.slots.CreateBooking(ctx, *slot, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.RecordBookingOutcome(BookingOutcomeConflict)
			return nil, appErrors.Wrap(err, appErrors.ErrSlotUnavailable.Code, appErrors.ErrSlotUnavailable.Status, appErrors.ErrSlotUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.metrics.RecordBookingOutcome(BookingOutcomeCreated)
	dispatchBookingEvent(ctx, s.events, events.TypeBookingCreated, booking, claims.UserID)
	return booking, nil
}

func (s *BookingService) bookableCounselor(ctx context.Context, student *models.Student, counselorID string) (*models.Counselor, error) {
	counselor, err := s.counselors.FindByID(ctx, counselorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counselor")
	}
	if counselor.InstituteID != student.InstituteID || !counselor.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
	}
	return counselor, nil
}

func (s *BookingService) generateForDate(ctx context.Context, counselorID string, date time.Time) ([]models.TimeSlot, error) {
	rows, err := s.availability.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return GenerateRangeSlots(counselorID, rows, date, date, s.slotDuration), nil
}

func dispatchBookingEvent(ctx context.Context, dispatcher bookingEventDispatcher, eventType string, booking *models.Booking, actorID string) {
	if dispatcher == nil || booking == nil {
		return
	}
	event := events.BookingEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		StudentID:   booking.StudentID,
		CounselorID: booking.CounselorID,
		SlotID:      booking.SlotID,
		Status:      string(booking.Status),
		ActorID:     actorID,
	}
	if booking.RejectionReason != nil {
		event.Reason = *booking.RejectionReason
	}
	dispatcher.Dispatch(ctx, event)
}
