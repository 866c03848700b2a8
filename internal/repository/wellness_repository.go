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

// WellnessRepository stores mood check-ins and reminders.
type WellnessRepository struct {
	db *sqlx.DB
}

// NewWellnessRepository constructs a WellnessRepository.
func NewWellnessRepository(db *sqlx.DB) *WellnessRepository {
	return &WellnessRepository{db: db}
}

// CreateMood inserts a mood entry.
func (r *WellnessRepository) CreateMood(ctx context.Context, entry *models.MoodEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.EntryDate == "" {
		entry.EntryDate = entry.CreatedAt.Format(models.DateLayout)
	}
	const query = `INSERT INTO mood_entries (id, student_id, mood, notes, entry_date, created_at) VALUES (:id, :student_id, :mood, :notes, :entry_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create mood entry: %w", err)
	}
	return nil
}

// ListRecentMoods returns up to limit mood entries, newest first.
func (r *WellnessRepository) ListRecentMoods(ctx context.Context, studentID string, limit int) ([]models.MoodEntry, error) {
	const query = `SELECT id, student_id, mood, notes, entry_date::text AS entry_date, created_at FROM mood_entries WHERE student_id = $1 ORDER BY created_at DESC LIMIT $2`
	var entries []models.MoodEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	return entries, nil
}

// CreateReminder inserts a reminder.
func (r *WellnessRepository) CreateReminder(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reminders (id, user_id, student_id, title, is_completed, created_at) VALUES (:id, :user_id, :student_id, :title, :is_completed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reminder); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// ListReminders returns a student's reminders, newest first.
func (r *WellnessRepository) ListReminders(ctx context.Context, studentID string) ([]models.Reminder, error) {
	const query = `SELECT id, user_id, student_id, title, is_completed, created_at FROM reminders WHERE student_id = $1 ORDER BY created_at DESC`
	var reminders []models.Reminder
	if err := r.db.SelectContext(ctx, &reminders, query, studentID); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// ToggleReminder flips completion of a reminder owned by userID.
func (r *WellnessRepository) ToggleReminder(ctx context.Context, id, userID string) (*models.Reminder, error) {
	const query = `UPDATE reminders SET is_completed = NOT is_completed WHERE id = $1 AND user_id = $2
RETURNING id, user_id, student_id, title, is_completed, created_at`
	var reminder models.Reminder
	if err := r.db.GetContext(ctx, &reminder, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("toggle reminder: %w", err)
	}
	return &reminder, nil
}

// DeleteReminder removes a reminder owned by userID.
func (r *WellnessRepository) DeleteReminder(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM reminders WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
