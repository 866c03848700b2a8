package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/storage"
)

type signupUserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type signupStudentRepository interface {
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
}

type signupInstituteRepository interface {
	CreateWithUser(ctx context.Context, user *models.User, institute *models.Institute) error
	FindByID(ctx context.Context, id string) (*models.Institute, error)
	ListPublic(ctx context.Context) ([]models.InstituteOption, error)
}

// UploadedDocument is a verification document received with an institute sign-up.
type UploadedDocument struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// SignupConfig bounds verification document uploads.
type SignupConfig struct {
	MaxDocumentBytes int64
	AllowedMIMEs     []string
}

// SignupService registers students and institutes.
type SignupService struct {
	users      signupUserRepository
	students   signupStudentRepository
	institutes signupInstituteRepository
	documents  storage.DocumentStore
	validator  *validator.Validate
	logger     *zap.Logger
	config     SignupConfig
	now        func() time.Time
}

// NewSignupService constructs a SignupService.
func NewSignupService(users signupUserRepository, students signupStudentRepository, institutes signupInstituteRepository, documents storage.DocumentStore, validate *validator.Validate, logger *zap.Logger, cfg SignupConfig) *SignupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupService{
		users:      users,
		students:   students,
		institutes: institutes,
		documents:  documents,
		validator:  validate,
		logger:     logger,
		config:     cfg,
		now:        time.Now,
	}
}

// ListPublicInstitutes returns the institutes a student can join.
func (s *SignupService) ListPublicInstitutes(ctx context.Context) ([]models.InstituteOption, error) {
	options, err := s.institutes.ListPublic(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutes")
	}
	if options == nil {
		options = []models.InstituteOption{}
	}
	return options, nil
}

// SignupStudent creates a STUDENT account bound to an existing institute.
func (s *SignupService) SignupStudent(ctx context.Context, req models.StudentSignupRequest) (*models.UserInfo, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student signup payload")
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}
	if _, err := s.institutes.FindByID(ctx, req.InstituteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "institute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}

	user, err := s.newUser(req.Email, req.Password, req.FullName, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	student := &models.Student{InstituteID: req.InstituteID, FullName: req.FullName, StudentNumber: req.StudentNumber}
	if err := s.students.CreateWithUser(ctx, user, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.audit(ctx, user, "student")
	return userInfo(user), nil
}

// SignupInstitute stores the verification document then creates the INSTITUTE account.
func (s *SignupService) SignupInstitute(ctx context.Context, req models.InstituteSignupRequest, doc *UploadedDocument) (*models.Institute, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.InstituteName = strings.TrimSpace(req.InstituteName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institute signup payload")
	}
	if err := s.checkDocument(doc); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	user, err := s.newUser(req.Email, req.Password, req.InstituteName, models.RoleInstitute)
	if err != nil {
		return nil, err
	}

	stored, err := s.documents.Put(ctx, storage.ObjectName(s.now(), doc.Filename), doc.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store verification document")
	}

	institute := &models.Institute{
		InstituteName:           req.InstituteName,
		Address:                 req.Address,
		Phone:                   req.Phone,
		Website:                 req.Website,
		VerificationDocumentKey: &stored.Key,
		VerificationDocumentURL: &stored.URL,
	}
	if err := s.institutes.CreateWithUser(ctx, user, institute); err != nil {
		if rmErr := s.documents.Remove(ctx, *stored); rmErr != nil {
			s.logger.Warn("failed to remove orphaned verification document", zap.String("document", stored.Key), zap.Error(rmErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institute")
	}
	s.audit(ctx, user, "institute")
	return institute, nil
}

func (s *SignupService) checkDocument(doc *UploadedDocument) error {
	if doc == nil || doc.Content == nil {
		return appErrors.Clone(appErrors.ErrValidation, "verification document is required")
	}
	if s.config.MaxDocumentBytes > 0 && doc.Size > s.config.MaxDocumentBytes {
		return appErrors.Clone(appErrors.ErrValidation, "verification document is too large")
	}
	if len(s.config.AllowedMIMEs) > 0 {
		mime := strings.ToLower(strings.TrimSpace(strings.SplitN(doc.ContentType, ";", 2)[0]))
		for _, allowed := range s.config.AllowedMIMEs {
			if strings.EqualFold(allowed, mime) {
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrValidation, "verification document type not allowed")
	}
	return nil
}

func (s *SignupService) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return nil
}

func (s *SignupService) newUser(email, password, fullName string, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return &models.User{Email: email, PasswordHash: string(hash), FullName: fullName, Role: role, Active: true}, nil
}

func (s *SignupService) audit(ctx context.Context, user *models.User, kind string) {
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionSignup,
		Resource:   "auth",
		ResourceID: &user.ID,
		NewValues:  []byte(`{"kind":"` + kind + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record signup audit log", zap.Error(err))
	}
}

func userInfo(user *models.User) *models.UserInfo {
	return &models.UserInfo{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: user.Role}
}
