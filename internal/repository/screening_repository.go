package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

// ScreeningRepository stores PHQ-9 and GAD-7 submissions.
type ScreeningRepository struct {
	db *sqlx.DB
}

// NewScreeningRepository constructs a ScreeningRepository.
func NewScreeningRepository(db *sqlx.DB) *ScreeningRepository {
	return &ScreeningRepository{db: db}
}

// CreatePHQ inserts a PHQ-9 result.
func (r *ScreeningRepository) CreatePHQ(ctx context.Context, test *models.PHQTest) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO phq_tests (id, student_id, score, answers, severity_level, created_at) VALUES (:id, :student_id, :score, :answers, :severity_level, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create phq test: %w", err)
	}
	return nil
}

// CreateGAD inserts a GAD-7 result.
func (r *ScreeningRepository) CreateGAD(ctx context.Context, test *models.GADTest) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gad_7_tests (id, student_id, score, answers, interpretation, created_at) VALUES (:id, :student_id, :score, :answers, :interpretation, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create gad test: %w", err)
	}
	return nil
}

// ListPHQ returns a student's PHQ-9 history, newest first.
func (r *ScreeningRepository) ListPHQ(ctx context.Context, studentID string) ([]models.PHQTest, error) {
	const query = `SELECT id, student_id, score, answers, severity_level, created_at FROM phq_tests WHERE student_id = $1 ORDER BY created_at DESC`
	var tests []models.PHQTest
	if err := r.db.SelectContext(ctx, &tests, query, studentID); err != nil {
		return nil, fmt.Errorf("list phq tests: %w", err)
	}
	return tests, nil
}

// ListGAD returns a student's GAD-7 history, newest first.
func (r *ScreeningRepository) ListGAD(ctx context.Context, studentID string) ([]models.GADTest, error) {
	const query = `SELECT id, student_id, score, answers, interpretation, created_at FROM gad_7_tests WHERE student_id = $1 ORDER BY created_at DESC`
	var tests []models.GADTest
	if err := r.db.SelectContext(ctx, &tests, query, studentID); err != nil {
		return nil, fmt.Errorf("list gad tests: %w", err)
	}
	return tests, nil
}
