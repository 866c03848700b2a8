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

const instituteColumns = `id, user_id, institute_name, address, phone, website, verification_document_key, verification_document_url, verified, created_at`

// InstituteRepository manages institute profiles.
type InstituteRepository struct {
	db *sqlx.DB
}

// NewInstituteRepository constructs an InstituteRepository.
func NewInstituteRepository(db *sqlx.DB) *InstituteRepository {
	return &InstituteRepository{db: db}
}

// CreateWithUser inserts the INSTITUTE account and its profile in one transaction.
func (r *InstituteRepository) CreateWithUser(ctx context.Context, user *models.User, institute *models.Institute) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin institute signup: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	if institute.ID == "" {
		institute.ID = uuid.NewString()
	}
	institute.UserID = user.ID
	if institute.CreatedAt.IsZero() {
		institute.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO institutes (id, user_id, institute_name, address, phone, website, verification_document_key, verification_document_url, verified, created_at)
VALUES (:id, :user_id, :institute_name, :address, :phone, :website, :verification_document_key, :verification_document_url, :verified, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, institute); err != nil {
		return fmt.Errorf("create institute: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit institute signup: %w", err)
	}
	return nil
}

// ListPublic returns the id and name of every institute, alphabetically.
func (r *InstituteRepository) ListPublic(ctx context.Context) ([]models.InstituteOption, error) {
	const query = `SELECT id, institute_name FROM institutes ORDER BY institute_name ASC`
	var options []models.InstituteOption
	if err := r.db.SelectContext(ctx, &options, query); err != nil {
		return nil, fmt.Errorf("list public institutes: %w", err)
	}
	return options, nil
}

// List returns institutes for administration, optionally filtered by verification state.
func (r *InstituteRepository) List(ctx context.Context, verified *bool) ([]models.Institute, error) {
	query := `SELECT ` + instituteColumns + ` FROM institutes`
	var args []interface{}
	if verified != nil {
		query += ` WHERE verified = $1`
		args = append(args, *verified)
	}
	query += ` ORDER BY created_at DESC`

	var institutes []models.Institute
	if err := r.db.SelectContext(ctx, &institutes, query, args...); err != nil {
		return nil, fmt.Errorf("list institutes: %w", err)
	}
	return institutes, nil
}

// FindByID returns an institute by identifier.
func (r *InstituteRepository) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	const query = `SELECT ` + instituteColumns + ` FROM institutes WHERE id = $1`
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find institute: %w", err)
	}
	return &institute, nil
}

// FindByUserID returns the institute owned by the account.
func (r *InstituteRepository) FindByUserID(ctx context.Context, userID string) (*models.Institute, error) {
	const query = `SELECT ` + instituteColumns + ` FROM institutes WHERE user_id = $1`
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find institute by user: %w", err)
	}
	return &institute, nil
}

// SetVerified records the admin verification decision.
func (r *InstituteRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	const query = `UPDATE institutes SET verified = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, verified)
	if err != nil {
		return fmt.Errorf("set institute verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
