package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/repository"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/events"
)

type counselorResolver interface {
	Counselor(ctx context.Context, claims *models.JWTClaims) (*models.Counselor, error)
}

type counselorBookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByCounselor(ctx context.Context, counselorID string) ([]models.CounselorBooking, error)
	Transition(ctx context.Context, t repository.BookingTransition) (*models.Booking, error)
}

type bookingExporter interface {
	CounselorBookings(counselor *models.Counselor, bookings []models.CounselorBooking, format string) (*dto.ExportFile, error)
}

// CounselorService is the counselor side of the booking workflow.
type CounselorService struct {
	identity  counselorResolver
	bookings  counselorBookingRepository
	exporter  bookingExporter
	events    bookingEventDispatcher
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewCounselorService constructs a CounselorService.
func NewCounselorService(identity counselorResolver, bookings counselorBookingRepository, exporter bookingExporter, dispatcher bookingEventDispatcher, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *CounselorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil)
	}
	return &CounselorService{identity: identity, bookings: bookings, exporter: exporter, events: dispatcher, validator: validate, metrics: metrics, logger: logger}
}

// ListBookings returns the caller's bookings, newest first.
func (s *CounselorService) ListBookings(ctx context.Context, claims *models.JWTClaims) ([]models.CounselorBooking, error) {
	counselor, err := s.identity.Counselor(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, counselor.ID)
}

// ApproveBooking confirms a pending booking and marks its slot booked.
func (s *CounselorService) ApproveBooking(ctx context.Context, claims *models.JWTClaims, bookingID string, req dto.BookingDecisionRequest) ([]models.CounselorBooking, error) {
	return s.decide(ctx, claims, bookingID, req, models.BookingConfirmed, models.SlotBooked)
}

// RejectBooking rejects a pending booking, storing the reason verbatim, and releases its slot.
func (s *CounselorService) RejectBooking(ctx context.Context, claims *models.JWTClaims, bookingID string, req dto.BookingDecisionRequest) ([]models.CounselorBooking, error) {
	return s.decide(ctx, claims, bookingID, req, models.BookingRejected, models.SlotAvailable)
}

// ExportBookings renders the caller's bookings as csv or pdf.
func (s *CounselorService) ExportBookings(ctx context.Context, claims *models.JWTClaims, format string) (*dto.ExportFile, error) {
	counselor, err := s.identity.Counselor(ctx, claims)
	if err != nil {
		return nil, err
	}
	bookings, err := s.list(ctx, counselor.ID)
	if err != nil {
		return nil, err
	}
	return s.exporter.CounselorBookings(counselor, bookings, format)
}

func (s *CounselorService) decide(ctx context.Context, claims *models.JWTClaims, bookingID string, req dto.BookingDecisionRequest, to models.BookingStatus, slotTo models.SlotStatus) ([]models.CounselorBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	counselor, err := s.identity.Counselor(ctx, claims)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if booking.CounselorID != counselor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	if slotID := strings.TrimSpace(req.SlotID); slotID != "" && slotID != booking.SlotID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot does not match booking")
	}
	if !booking.Status.CanTransitionTo(to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "booking is "+string(booking.Status))
	}

	transition := repository.BookingTransition{
		BookingID:   booking.ID,
		CounselorID: counselor.ID,
		From:        booking.Status,
		To:          to,
		SlotFrom:    models.SlotPending,
		SlotTo:      slotTo,
	}
	if to == models.BookingRejected {
		reason := ""
		if req.Reason != nil {
			reason = *req.Reason
		}
		transition.Reason = &reason
	}

	updated, err := s.bookings.Transition(ctx, transition)
	if err != nil {
		if errors.Is(err, repository.ErrStaleBooking) {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "booking changed, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	eventType := events.TypeBookingConfirmed
	outcome := BookingOutcomeConfirmed
	if to == models.BookingRejected {
		eventType = events.TypeBookingRejected
		outcome = BookingOutcomeRejected
	}
	s.metrics.RecordBookingOutcome(outcome)
	dispatchBookingEvent(ctx, s.events, eventType, updated, claims.UserID)

	return s.list(ctx, counselor.ID)
}

func (s *CounselorService) list(ctx context.Context, counselorID string) ([]models.CounselorBooking, error) {
	bookings, err := s.bookings.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	if bookings == nil {
		bookings = []models.CounselorBooking{}
	}
	return bookings, nil
}
