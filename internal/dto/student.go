package dto

// ScreeningRequest carries per-question answers for PHQ-9 or GAD-7.
type ScreeningRequest struct {
	Answers []int `json:"answers" validate:"required,dive,min=0,max=3"`
}

// ScreeningResult is returned after a screening is stored.
type ScreeningResult struct {
	ID       string `json:"id"`
	Score    int    `json:"score"`
	Severity string `json:"severity"`
}

// MoodRequest logs a daily mood.
type MoodRequest struct {
	Mood  string  `json:"mood" validate:"required,oneof=very_sad sad neutral happy very_happy"`
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

// FocusRequest updates today's focus.
type FocusRequest struct {
	TodaysFocus string `json:"todays_focus" validate:"required,max=200"`
}

// ReminderRequest creates a reminder.
type ReminderRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}
