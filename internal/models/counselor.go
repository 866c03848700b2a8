package models

import "time"

// Counselor is the profile attached to a COUNSELOR user.
type Counselor struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Speciality  string    `db:"speciality" json:"speciality"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
