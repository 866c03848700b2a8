package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

// AvailabilityRepository stores counselors' weekly templates.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByCounselor returns the stored template rows ordered by day.
func (r *AvailabilityRepository) ListByCounselor(ctx context.Context, counselorID string) ([]models.Availability, error) {
	const query = `SELECT id, counselor_id, day_of_week, start_time::text AS start_time, end_time::text AS end_time, is_active
FROM counselor_availability WHERE counselor_id = $1 ORDER BY day_of_week`
	var rows []models.Availability
	if err := r.db.SelectContext(ctx, &rows, query, counselorID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return rows, nil
}

// Upsert writes template rows keyed on (counselor_id, day_of_week) in one transaction.
func (r *AvailabilityRepository) Upsert(ctx context.Context, counselorID string, rows []models.Availability) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO counselor_availability (id, counselor_id, day_of_week, start_time, end_time, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (counselor_id, day_of_week)
DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, is_active = EXCLUDED.is_active`
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		rows[i].CounselorID = counselorID
		if _, err = tx.ExecContext(ctx, query, rows[i].ID, counselorID, rows[i].DayOfWeek, rows[i].StartTime, rows[i].EndTime, rows[i].IsActive); err != nil {
			return fmt.Errorf("upsert availability day %d: %w", rows[i].DayOfWeek, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit availability: %w", err)
	}
	return nil
}
