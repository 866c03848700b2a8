package dto

import "github.com/noah-isme/mannsetu-api/internal/models"

// StudentDashboard aggregates everything the student home screen shows.
type StudentDashboard struct {
	Profile          models.Student          `json:"profile"`
	TodaysFocus      string                  `json:"todays_focus"`
	PHQTests         []models.PHQTest        `json:"phq_tests"`
	GADTests         []models.GADTest        `json:"gad_tests"`
	Bookings         []models.StudentBooking `json:"bookings"`
	UpcomingBookings []models.StudentBooking `json:"upcoming_bookings"`
	MoodEntries      []models.MoodEntry      `json:"mood_entries"`
	Reminders        []models.Reminder       `json:"reminders"`
}

// InstituteOverview aggregates the institute administration screen.
type InstituteOverview struct {
	Institute  models.Institute          `json:"institute"`
	Counselors []models.Counselor        `json:"counselors"`
	Students   []models.Student          `json:"students"`
	Bookings   []models.InstituteBooking `json:"bookings"`
}
