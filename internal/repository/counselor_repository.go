package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

const counselorColumns = `id, user_id, institute_id, full_name, speciality, email, phone, is_active, created_at`

// CounselorRepository manages counselor profiles.
type CounselorRepository struct {
	db *sqlx.DB
}

// NewCounselorRepository constructs a CounselorRepository.
func NewCounselorRepository(db *sqlx.DB) *CounselorRepository {
	return &CounselorRepository{db: db}
}

// CreateWithUser inserts the COUNSELOR account and its profile in one transaction.
func (r *CounselorRepository) CreateWithUser(ctx context.Context, user *models.User, counselor *models.Counselor) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create counselor: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	if counselor.ID == "" {
		counselor.ID = uuid.NewString()
	}
	counselor.UserID = user.ID
	if counselor.CreatedAt.IsZero() {
		counselor.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO counselors (id, user_id, institute_id, full_name, speciality, email, phone, is_active, created_at)
VALUES (:id, :user_id, :institute_id, :full_name, :speciality, :email, :phone, :is_active, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, counselor); err != nil {
		return fmt.Errorf("create counselor: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create counselor: %w", err)
	}
	return nil
}

// FindByID returns a counselor by identifier.
func (r *CounselorRepository) FindByID(ctx context.Context, id string) (*models.Counselor, error) {
	const query = `SELECT ` + counselorColumns + ` FROM counselors WHERE id = $1`
	var counselor models.Counselor
	if err := r.db.GetContext(ctx, &counselor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find counselor: %w", err)
	}
	return &counselor, nil
}

// FindByUserID returns the counselor profile of an account.
func (r *CounselorRepository) FindByUserID(ctx context.Context, userID string) (*models.Counselor, error) {
	const query = `SELECT ` + counselorColumns + ` FROM counselors WHERE user_id = $1`
	var counselor models.Counselor
	if err := r.db.GetContext(ctx, &counselor, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find counselor by user: %w", err)
	}
	return &counselor, nil
}

// ListByInstitute returns all counselors of an institute, newest first.
func (r *CounselorRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.Counselor, error) {
	const query = `SELECT ` + counselorColumns + ` FROM counselors WHERE institute_id = $1 ORDER BY created_at DESC`
	var counselors []models.Counselor
	if err := r.db.SelectContext(ctx, &counselors, query, instituteID); err != nil {
		return nil, fmt.Errorf("list counselors: %w", err)
	}
	return counselors, nil
}

// ListActiveByInstitute returns the counselors a student may book, by name.
func (r *CounselorRepository) ListActiveByInstitute(ctx context.Context, instituteID string) ([]models.Counselor, error) {
	const query = `SELECT ` + counselorColumns + ` FROM counselors WHERE institute_id = $1 AND is_active = TRUE ORDER BY full_name ASC`
	var counselors []models.Counselor
	if err := r.db.SelectContext(ctx, &counselors, query, instituteID); err != nil {
		return nil, fmt.Errorf("list active counselors: %w", err)
	}
	return counselors, nil
}

// ListActive returns every active counselor across institutes.
func (r *CounselorRepository) ListActive(ctx context.Context) ([]models.Counselor, error) {
	const query = `SELECT ` + counselorColumns + ` FROM counselors WHERE is_active = TRUE ORDER BY id`
	var counselors []models.Counselor
	if err := r.db.SelectContext(ctx, &counselors, query); err != nil {
		return nil, fmt.Errorf("list all active counselors: %w", err)
	}
	return counselors, nil
}

// SetActive toggles whether a counselor accepts bookings.
func (r *CounselorRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE counselors SET is_active = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set counselor active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
