package models

import "time"

// DefaultFocus is shown until a student sets their own focus for the day.
const DefaultFocus = "Practice mindfulness for 10 minutes"

// Student is the profile attached to a STUDENT user.
type Student struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	InstituteID   string    `db:"institute_id" json:"institute_id"`
	FullName      string    `db:"full_name" json:"full_name"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	TodaysFocus   *string   `db:"todays_focus" json:"todays_focus,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Focus returns the stored focus or the default one.
func (s Student) Focus() string {
	if s.TodaysFocus == nil || *s.TodaysFocus == "" {
		return DefaultFocus
	}
	return *s.TodaysFocus
}
