package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

type identityStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type identityCounselorRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Counselor, error)
}

type identityInstituteRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Institute, error)
}

// IdentityService resolves authenticated claims to the caller's role profile.
// It keeps no state between requests.
type IdentityService struct {
	students   identityStudentRepository
	counselors identityCounselorRepository
	institutes identityInstituteRepository
	logger     *zap.Logger
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(students identityStudentRepository, counselors identityCounselorRepository, institutes identityInstituteRepository, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{students: students, counselors: counselors, institutes: institutes, logger: logger}
}

// Student returns the student profile of the caller.
func (s *IdentityService) Student(ctx context.Context, claims *models.JWTClaims) (*models.Student, error) {
	if err := requireRole(claims, models.RoleStudent); err != nil {
		return nil, err
	}
	student, err := s.students.FindByUserID(ctx, claims.UserID)
	if err != nil {
		return nil, profileError(err, "student")
	}
	return student, nil
}

// Counselor returns the counselor profile of the caller.
func (s *IdentityService) Counselor(ctx context.Context, claims *models.JWTClaims) (*models.Counselor, error) {
	if err := requireRole(claims, models.RoleCounselor); err != nil {
		return nil, err
	}
	counselor, err := s.counselors.FindByUserID(ctx, claims.UserID)
	if err != nil {
		return nil, profileError(err, "counselor")
	}
	if !counselor.IsActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "counselor account is inactive")
	}
	return counselor, nil
}

// Institute returns the institute owned by the caller.
func (s *IdentityService) Institute(ctx context.Context, claims *models.JWTClaims) (*models.Institute, error) {
	if err := requireRole(claims, models.RoleInstitute); err != nil {
		return nil, err
	}
	institute, err := s.institutes.FindByUserID(ctx, claims.UserID)
	if err != nil {
		return nil, profileError(err, "institute")
	}
	return institute, nil
}

// Resolve describes the caller including the id of their role profile.
func (s *IdentityService) Resolve(ctx context.Context, claims *models.JWTClaims) (*models.Identity, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	identity := &models.Identity{UserInfo: models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}}

	switch claims.Role {
	case models.RoleStudent:
		student, err := s.Student(ctx, claims)
		if err != nil {
			return nil, err
		}
		identity.ProfileID = student.ID
		identity.InstituteID = student.InstituteID
	case models.RoleCounselor:
		counselor, err := s.counselors.FindByUserID(ctx, claims.UserID)
		if err != nil {
			return nil, profileError(err, "counselor")
		}
		identity.ProfileID = counselor.ID
		identity.InstituteID = counselor.InstituteID
	case models.RoleInstitute:
		institute, err := s.Institute(ctx, claims)
		if err != nil {
			return nil, err
		}
		identity.ProfileID = institute.ID
		identity.InstituteID = institute.ID
	}
	return identity, nil
}

func requireRole(claims *models.JWTClaims, role models.UserRole) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	if claims.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, "operation requires role "+string(role))
	}
	return nil
}

func profileError(err error, kind string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrForbidden, kind+" profile not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+kind+" profile")
}
