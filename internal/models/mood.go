package models

import "time"

// Mood values offered by the daily check-in.
const (
	MoodVerySad   = "very_sad"
	MoodSad       = "sad"
	MoodNeutral   = "neutral"
	MoodHappy     = "happy"
	MoodVeryHappy = "very_happy"
)

// RecentMoodLimit bounds the mood history returned on the dashboard.
const RecentMoodLimit = 7

// MoodEntry is one daily check-in.
type MoodEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Mood      string    `db:"mood" json:"mood"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	EntryDate string    `db:"entry_date" json:"entry_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Reminder struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Title       string    `db:"title" json:"title"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
