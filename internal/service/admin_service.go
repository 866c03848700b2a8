package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/storage"
)

type adminInstituteRepository interface {
	List(ctx context.Context, verified *bool) ([]models.Institute, error)
	FindByID(ctx context.Context, id string) (*models.Institute, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type documentLinker interface {
	Link(ctx context.Context, doc storage.StoredDocument) (string, time.Time, error)
}

// AdminService reviews institute registrations and exposes system metrics.
type AdminService struct {
	institutes adminInstituteRepository
	audit      auditWriter
	documents  documentLinker
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(institutes adminInstituteRepository, audit auditWriter, documents documentLinker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{institutes: institutes, audit: audit, documents: documents, metrics: metrics, validator: validate, logger: logger}
}

// ListInstitutes returns institutes, optionally filtered by verification state.
func (s *AdminService) ListInstitutes(ctx context.Context, verified *bool) ([]models.Institute, error) {
	institutes, err := s.institutes.List(ctx, verified)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutes")
	}
	if institutes == nil {
		institutes = []models.Institute{}
	}
	return institutes, nil
}

// VerifyInstitute records the verification decision for an institute.
func (s *AdminService) VerifyInstitute(ctx context.Context, claims *models.JWTClaims, id string, req dto.VerifyInstituteRequest) (*models.Institute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	institute, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := institute.Verified
	if err := s.institutes.SetVerified(ctx, id, *req.Verified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update institute")
	}
	institute.Verified = *req.Verified

	if s.audit != nil {
		var actor *string
		if claims != nil {
			actor = &claims.UserID
		}
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     actor,
			Action:     models.AuditActionInstituteVerify,
			Resource:   "institute",
			ResourceID: &institute.ID,
			OldValues:  []byte(fmt.Sprintf(`{"verified":%t}`, previous)),
			NewValues:  []byte(fmt.Sprintf(`{"verified":%t}`, institute.Verified)),
		}); err != nil {
			s.logger.Warn("failed to record verification audit log", zap.String("institute_id", id), zap.Error(err))
		}
	}
	return institute, nil
}

// DocumentLink returns a download link for the institute's verification document.
func (s *AdminService) DocumentLink(ctx context.Context, id string) (*dto.DocumentLink, error) {
	institute, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if institute.VerificationDocumentKey == nil || *institute.VerificationDocumentKey == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "institute has no verification document")
	}
	doc := storage.StoredDocument{Key: *institute.VerificationDocumentKey}
	if institute.VerificationDocumentURL != nil {
		doc.URL = *institute.VerificationDocumentURL
	}
	url, expiresAt, err := s.documents.Link(ctx, doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build document link")
	}
	link := &dto.DocumentLink{URL: url}
	if !expiresAt.IsZero() {
		link.ExpiresAt = &expiresAt
	}
	return link, nil
}

// Metrics returns the current metrics snapshot.
func (s *AdminService) Metrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *AdminService) find(ctx context.Context, id string) (*models.Institute, error) {
	institute, err := s.institutes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}
	return institute, nil
}
