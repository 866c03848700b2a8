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

const studentColumns = `id, user_id, institute_id, full_name, student_number, todays_focus, created_at`

// StudentRepository manages persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateWithUser inserts the STUDENT account and its profile in one transaction.
func (r *StudentRepository) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student signup: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.UserID = user.ID
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, user_id, institute_id, full_name, student_number, todays_focus, created_at)
VALUES (:id, :user_id, :institute_id, :full_name, :student_number, :todays_focus, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student signup: %w", err)
	}
	return nil
}

// FindByUserID returns the student profile of an account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &student, nil
}

// ListByInstitute returns an institute's students, newest first.
func (r *StudentRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE institute_id = $1 ORDER BY created_at DESC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, instituteID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// UpdateFocus stores today's focus for a student.
func (r *StudentRepository) UpdateFocus(ctx context.Context, studentID, focus string) error {
	const query = `UPDATE students SET todays_focus = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID, focus)
	if err != nil {
		return fmt.Errorf("update focus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
