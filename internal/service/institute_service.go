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
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

const defaultMaxGenerateRangeDays = 62

type instituteResolver interface {
	Institute(ctx context.Context, claims *models.JWTClaims) (*models.Institute, error)
}

type instituteUserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type instituteCounselorRepository interface {
	CreateWithUser(ctx context.Context, user *models.User, counselor *models.Counselor) error
	FindByID(ctx context.Context, id string) (*models.Counselor, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.Counselor, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type instituteStudentRepository interface {
	ListByInstitute(ctx context.Context, instituteID string) ([]models.Student, error)
}

type instituteBookingRepository interface {
	ListByInstitute(ctx context.Context, instituteID string) ([]models.InstituteBooking, error)
}

type availabilityRepository interface {
	ListByCounselor(ctx context.Context, counselorID string) ([]models.Availability, error)
	Upsert(ctx context.Context, counselorID string, rows []models.Availability) error
}

type slotWriter interface {
	EnsureSlots(ctx context.Context, slots []models.TimeSlot) error
}

// InstituteService backs the institute administration screens.
type InstituteService struct {
	identity     instituteResolver
	users        instituteUserRepository
	counselors   instituteCounselorRepository
	students     instituteStudentRepository
	bookings     instituteBookingRepository
	availability availabilityRepository
	slots        slotWriter
	cache        rosterCache
	validator    *validator.Validate
	logger       *zap.Logger
	slotDuration time.Duration
	maxRangeDays int
}

// InstituteServiceDeps groups the collaborators of InstituteService.
type InstituteServiceDeps struct {
	Identity     instituteResolver
	Users        instituteUserRepository
	Counselors   instituteCounselorRepository
	Students     instituteStudentRepository
	Bookings     instituteBookingRepository
	Availability availabilityRepository
	Slots        slotWriter
	Cache        rosterCache
	Validator    *validator.Validate
	Logger       *zap.Logger
	SlotDuration time.Duration
	MaxRangeDays int
}

// NewInstituteService constructs an InstituteService.
func NewInstituteService(deps InstituteServiceDeps) *InstituteService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.SlotDuration <= 0 {
		deps.SlotDuration = defaultSlotDuration
	}
	if deps.MaxRangeDays <= 0 {
		deps.MaxRangeDays = defaultMaxGenerateRangeDays
	}
	return &InstituteService{
		identity:     deps.Identity,
		users:        deps.Users,
		counselors:   deps.Counselors,
		students:     deps.Students,
		bookings:     deps.Bookings,
		availability: deps.Availability,
		slots:        deps.Slots,
		cache:        deps.Cache,
		validator:    deps.Validator,
		logger:       deps.Logger,
		slotDuration: deps.SlotDuration,
		maxRangeDays: deps.MaxRangeDays,
	}
}

// Overview loads the institute profile with its counselors, students and bookings.
func (s *InstituteService) Overview(ctx context.Context, claims *models.JWTClaims) (*dto.InstituteOverview, error) {
	institute, err := s.identity.Institute(ctx, claims)
	if err != nil {
		return nil, err
	}

	out := &dto.InstituteOverview{Institute: *institute}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.counselors.ListByInstitute(gctx, institute.ID)
		out.Counselors = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.students.ListByInstitute(gctx, institute.ID)
		out.Students = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.bookings.ListByInstitute(gctx, institute.ID)
		out.Bookings = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute overview")
	}
	if out.Counselors == nil {
		out.Counselors = []models.Counselor{}
	}
	if out.Students == nil {
		out.Students = []models.Student{}
	}
	if out.Bookings == nil {
		out.Bookings = []models.InstituteBooking{}
	}
	return out, nil
}

// CreateCounselor provisions a counselor account and profile in one transaction.
func (s *InstituteService) CreateCounselor(ctx context.Context, claims *models.JWTClaims, req dto.CreateCounselorRequest) (*models.Counselor, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counselor payload")
	}
	institute, err := s.identity.Institute(ctx, claims)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{Email: req.Email, PasswordHash: string(hash), FullName: req.FullName, Role: models.RoleCounselor, Active: true}
	counselor := &models.Counselor{
		InstituteID: institute.ID,
		FullName:    req.FullName,
		Speciality:  strings.TrimSpace(req.Speciality),
		Email:       req.Email,
		Phone:       strings.TrimSpace(req.Phone),
		IsActive:    true,
	}
	if err := s.counselors.CreateWithUser(ctx, user, counselor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create counselor")
	}

	s.invalidateRoster(ctx, institute.ID)
	s.audit(ctx, claims, models.AuditActionCounselorCreate, counselor.ID, fmt.Sprintf(`{"email":%q}`, counselor.Email))
	return counselor, nil
}

// UpdateCounselorStatus activates or deactivates one of the institute's counselors.
func (s *InstituteService) UpdateCounselorStatus(ctx context.Context, claims *models.JWTClaims, counselorID string, req dto.CounselorStatusRequest) (*models.Counselor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	institute, counselor, err := s.ownedCounselor(ctx, claims, counselorID)
	if err != nil {
		return nil, err
	}
	if err := s.counselors.SetActive(ctx, counselor.ID, *req.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update counselor")
	}
	counselor.IsActive = *req.IsActive

	s.invalidateRoster(ctx, institute.ID)
	s.audit(ctx, claims, models.AuditActionCounselorStatus, counselor.ID, fmt.Sprintf(`{"is_active":%t}`, counselor.IsActive))
	return counselor, nil
}

// GetAvailability returns the counselor's full weekly template, defaults included.
func (s *InstituteService) GetAvailability(ctx context.Context, claims *models.JWTClaims, counselorID string) ([]models.Availability, error) {
	_, counselor, err := s.ownedCounselor(ctx, claims, counselorID)
	if err != nil {
		return nil, err
	}
	rows, err := s.availability.ListByCounselor(ctx, counselor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return models.FullWeek(counselor.ID, rows), nil
}

// UpdateAvailability replaces the template rows for the days supplied.
func (s *InstituteService) UpdateAvailability(ctx context.Context, claims *models.JWTClaims, counselorID string, days []dto.AvailabilityDay) ([]models.Availability, error) {
	rows, err := s.normalizeAvailability(counselorID, days)
	if err != nil {
		return nil, err
	}
	_, counselor, err := s.ownedCounselor(ctx, claims, counselorID)
	if err != nil {
		return nil, err
	}
	if err := s.availability.Upsert(ctx, counselor.ID, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability")
	}
	s.audit(ctx, claims, models.AuditActionAvailability, counselor.ID, fmt.Sprintf(`{"days":%d}`, len(rows)))
	return s.GetAvailability(ctx, claims, counselor.ID)
}

// GenerateSlots materializes slots for every day in [from, to].
func (s *InstituteService) GenerateSlots(ctx context.Context, claims *models.JWTClaims, counselorID string, req dto.GenerateSlotsRequest) (*dto.GenerateSlotsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid range payload")
	}
	from, err := normalizeDate(req.From)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
	}
	to, err := normalizeDate(req.To)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxRangeDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range must not exceed %d days", s.maxRangeDays))
	}

	_, counselor, err := s.ownedCounselor(ctx, claims, counselorID)
	if err != nil {
		return nil, err
	}
	rows, err := s.availability.ListByCounselor(ctx, counselor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	slots := GenerateRangeSlots(counselor.ID, rows, from, to, s.slotDuration)
	if err := s.slots.EnsureSlots(ctx, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate slots")
	}

	s.audit(ctx, claims, models.AuditActionSlotsGenerate, counselor.ID, fmt.Sprintf(`{"slots":%d}`, len(slots)))
	return &dto.GenerateSlotsResult{
		CounselorID: counselor.ID,
		From:        from.Format(models.DateLayout),
		To:          to.Format(models.DateLayout),
		Slots:       len(slots),
	}, nil
}

func (s *InstituteService) normalizeAvailability(counselorID string, days []dto.AvailabilityDay) ([]models.Availability, error) {
	if len(days) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one day is required")
	}
	seen := make(map[int]bool, len(days))
	rows := make([]models.Availability, 0, len(days))
	for _, day := range days {
		if err := s.validator.Struct(day); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability day")
		}
		if seen[day.DayOfWeek] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d listed twice", day.DayOfWeek))
		}
		seen[day.DayOfWeek] = true

		start, err := normalizeClock(day.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
		}
		end, err := normalizeClock(day.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
		}
		// fixed-width HH:MM:SS compares lexically
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d must start before it ends", day.DayOfWeek))
		}
		rows = append(rows, models.Availability{
			CounselorID: counselorID,
			DayOfWeek:   day.DayOfWeek,
			StartTime:   start,
			EndTime:     end,
			IsActive:    day.IsActive,
		})
	}
	return rows, nil
}

// ownedCounselor resolves the caller's institute and a counselor belonging to it.
// Counselors of other institutes are reported as missing.
func (s *InstituteService) ownedCounselor(ctx context.Context, claims *models.JWTClaims, counselorID string) (*models.Institute, *models.Counselor, error) {
	institute, err := s.identity.Institute(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	counselor, err := s.counselors.FindByID(ctx, counselorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counselor")
	}
	if counselor.InstituteID != institute.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "counselor not found")
	}
	return institute, counselor, nil
}

func (s *InstituteService) invalidateRoster(ctx context.Context, instituteID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRoster(ctx, instituteID); err != nil {
		s.logger.Warn("failed to invalidate counselor roster", zap.String("institute_id", instituteID), zap.Error(err))
	}
}

func (s *InstituteService) audit(ctx context.Context, claims *models.JWTClaims, action, resourceID, payload string) {
	if s.users == nil {
		return
	}
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "counselor",
		ResourceID: &resourceID,
		NewValues:  []byte(payload),
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
