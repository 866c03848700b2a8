package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/repository"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/events"
)

type studentProfileRepository interface {
	UpdateFocus(ctx context.Context, studentID, focus string) error
}

type screeningRepository interface {
	CreatePHQ(ctx context.Context, test *models.PHQTest) error
	CreateGAD(ctx context.Context, test *models.GADTest) error
	ListPHQ(ctx context.Context, studentID string) ([]models.PHQTest, error)
	ListGAD(ctx context.Context, studentID string) ([]models.GADTest, error)
}

type wellnessRepository interface {
	CreateMood(ctx context.Context, entry *models.MoodEntry) error
	ListRecentMoods(ctx context.Context, studentID string, limit int) ([]models.MoodEntry, error)
	CreateReminder(ctx context.Context, reminder *models.Reminder) error
	ListReminders(ctx context.Context, studentID string) ([]models.Reminder, error)
	ToggleReminder(ctx context.Context, id, userID string) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, id, userID string) error
}

type studentBookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentBooking, error)
	Transition(ctx context.Context, t repository.BookingTransition) (*models.Booking, error)
}

// StudentService aggregates a student's wellness data.
type StudentService struct {
	identity   studentResolver
	profiles   studentProfileRepository
	screenings screeningRepository
	wellness   wellnessRepository
	bookings   studentBookingRepository
	events     bookingEventDispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// StudentServiceDeps groups the collaborators of StudentService.
type StudentServiceDeps struct {
	Identity   studentResolver
	Profiles   studentProfileRepository
	Screenings screeningRepository
	Wellness   wellnessRepository
	Bookings   studentBookingRepository
	Events     bookingEventDispatcher
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(deps StudentServiceDeps) *StudentService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &StudentService{
		identity:   deps.Identity,
		profiles:   deps.Profiles,
		screenings: deps.Screenings,
		wellness:   deps.Wellness,
		bookings:   deps.Bookings,
		events:     deps.Events,
		metrics:    deps.Metrics,
		validator:  deps.Validator,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Dashboard loads the profile and then every related set in parallel.
func (s *StudentService) Dashboard(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboard, error) {
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}

	out := &dto.StudentDashboard{Profile: *student, TodaysFocus: student.Focus()}
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tests, err := s.screenings.ListPHQ(gctx, student.ID)
		out.PHQTests = tests
		return err
	})
	g.Go(func() error {
		tests, err := s.screenings.ListGAD(gctx, student.ID)
		out.GADTests = tests
		return err
	})
	g.Go(func() error {
		bookings, err := s.bookings.ListByStudent(gctx, student.ID)
		out.Bookings = bookings
		return err
	})
	g.Go(func() error {
		moods, err := s.wellness.ListRecentMoods(gctx, student.ID, models.RecentMoodLimit)
		out.MoodEntries = moods
		return err
	})
	g.Go(func() error {
		reminders, err := s.wellness.ListReminders(gctx, student.ID)
		out.Reminders = reminders
		return err
	})
	err = g.Wait()
	s.metrics.ObserveDBQuery("student_dashboard", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}

	today := s.now().UTC().Format(models.DateLayout)
	out.UpcomingBookings = make([]models.StudentBooking, 0)
	for _, b := range out.Bookings {
		if b.Status == models.BookingConfirmed && b.SlotDate >= today {
			out.UpcomingBookings = append(out.UpcomingBookings, b)
		}
	}
	fillEmpty(out)
	return out, nil
}

// SubmitPHQ scores and stores a PHQ-9 questionnaire.
func (s *StudentService) SubmitPHQ(ctx context.Context, claims *models.JWTClaims, req dto.ScreeningRequest) (*dto.ScreeningResult, error) {
	if err := s.validateAnswers(req, models.PHQ9Questions); err != nil {
		return nil, err
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	answers := models.Answers(req.Answers)
	test := &models.PHQTest{StudentID: student.ID, Score: answers.Sum(), Answers: answers}
	test.SeverityLevel = models.PHQSeverity(test.Score)
	if err := s.screenings.CreatePHQ(ctx, test); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save PHQ-9 result")
	}
	return &dto.ScreeningResult{ID: test.ID, Score: test.Score, Severity: test.SeverityLevel}, nil
}

// SubmitGAD scores and stores a GAD-7 questionnaire.
func (s *StudentService) SubmitGAD(ctx context.Context, claims *models.JWTClaims, req dto.ScreeningRequest) (*dto.ScreeningResult, error) {
	if err := s.validateAnswers(req, models.GAD7Questions); err != nil {
		return nil, err
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	answers := models.Answers(req.Answers)
	test := &models.GADTest{StudentID: student.ID, Score: answers.Sum(), Answers: answers}
	test.Interpretation = models.GADSeverity(test.Score)
	if err := s.screenings.CreateGAD(ctx, test); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save GAD-7 result")
	}
	return &dto.ScreeningResult{ID: test.ID, Score: test.Score, Severity: test.Interpretation}, nil
}

// LogMood records today's mood.
func (s *StudentService) LogMood(ctx context.Context, claims *models.JWTClaims, req dto.MoodRequest) (*models.MoodEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mood payload")
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	entry := &models.MoodEntry{StudentID: student.ID, Mood: req.Mood, Notes: req.Notes, EntryDate: now.Format(models.DateLayout), CreatedAt: now}
	if err := s.wellness.CreateMood(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save mood")
	}
	return entry, nil
}

// UpdateFocus sets today's focus.
func (s *StudentService) UpdateFocus(ctx context.Context, claims *models.JWTClaims, req dto.FocusRequest) (string, error) {
	req.TodaysFocus = strings.TrimSpace(req.TodaysFocus)
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid focus payload")
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return "", err
	}
	if err := s.profiles.UpdateFocus(ctx, student.ID, req.TodaysFocus); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update focus")
	}
	return req.TodaysFocus, nil
}

// AddReminder creates a reminder for the caller.
func (s *StudentService) AddReminder(ctx context.Context, claims *models.JWTClaims, req dto.ReminderRequest) (*models.Reminder, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reminder payload")
	}
	student, err := s.identity.Student(ctx, claims)
	if err != nil {
		return nil, err
	}
	reminder := &models.Reminder{UserID: claims.UserID, StudentID: student.ID, Title: req.Title}
	if err := s.wellness.CreateReminder(ctx, reminder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reminder")
	}
	return reminder, nil
}

// ToggleReminder flips completion of one of the caller's reminders.
func (s *StudentService) ToggleReminder(ctx context.Context, claims *models.JWTClaims, id string) (*models.Reminder, error) {
	if err := requireRole(claims, models.RoleStudent); err != nil {
		return nil, err
	}
	reminder, err := s.wellness.ToggleReminder(ctx, id, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle reminder")
	}
	return reminder, nil
}

// DeleteReminder removes one of the caller's reminders.
func (s *StudentService) DeleteReminder(ctx context.Context, claims *models.JWTClaims, id string) error {
	if err := requireRole(claims, models.RoleStudent); err != nil {
		return err
	}
	if err := s.wellness.DeleteReminder(ctx, id, claims.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reminder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reminder")
	}
	return nil
}

// CancelBooking cancels one of the caller's confirmed bookings and frees its slot.
func (s *StudentService) CancelBooking(ctx context.Context, claims *models.JWTClaims, bookingID string) (*models.Booking, error) {
	student, err := s.identity.Student(ctx, claims)
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
	if booking.StudentID != student.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	if !booking.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only confirmed bookings can be cancelled")
	}

	updated, err := s.bookings.Transition(ctx, repository.BookingTransition{
		BookingID: booking.ID,
		StudentID: student.ID,
		From:      models.BookingConfirmed,
		To:        models.BookingCancelled,
		SlotFrom:  models.SlotBooked,
		SlotTo:    models.SlotAvailable,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleBooking) {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "booking changed, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	s.metrics.RecordBookingOutcome(BookingOutcomeCancelled)
	dispatchBookingEvent(ctx, s.events, events.TypeBookingCancelled, updated, claims.UserID)
	return updated, nil
}

func (s *StudentService) validateAnswers(req dto.ScreeningRequest, questions int) error {
	if len(req.Answers) != questions {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("expected %d answers", questions))
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "answers must be between 0 and 3")
	}
	return nil
}

func fillEmpty(d *dto.StudentDashboard) {
	if d.PHQTests == nil {
		d.PHQTests = []models.PHQTest{}
	}
	if d.GADTests == nil {
		d.GADTests = []models.GADTest{}
	}
	if d.Bookings == nil {
		d.Bookings = []models.StudentBooking{}
	}
	if d.MoodEntries == nil {
		d.MoodEntries = []models.MoodEntry{}
	}
	if d.Reminders == nil {
		d.Reminders = []models.Reminder{}
	}
}
