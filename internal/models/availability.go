package models

import "fmt"

// Weekly template defaults applied to days a counselor never configured.
const (
	DefaultAvailabilityStart = "09:00:00"
	DefaultAvailabilityEnd   = "17:00:00"
)

// Availability is one day of a counselor's weekly template. DayOfWeek follows
// time.Weekday: 0 is Sunday.
type Availability struct {
	ID          string `db:"id" json:"id,omitempty"`
	CounselorID string `db:"counselor_id" json:"counselor_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// DefaultAvailability returns the template used when a day has no row:
// 09:00 to 17:00, active Monday through Friday.
func DefaultAvailability(counselorID string, day int) Availability {
	return Availability{
		CounselorID: counselorID,
		DayOfWeek:   day,
		StartTime:   DefaultAvailabilityStart,
		EndTime:     DefaultAvailabilityEnd,
		IsActive:    day >= 1 && day <= 5,
	}
}

// FullWeek fills the gaps in rows with defaults and returns seven entries ordered Sunday first.
func FullWeek(counselorID string, rows []Availability) []Availability {
	week := make([]Availability, 7)
	for day := range week {
		week[day] = DefaultAvailability(counselorID, day)
	}
	for _, row := range rows {
		if row.DayOfWeek < 0 || row.DayOfWeek > 6 {
			continue
		}
		week[row.DayOfWeek] = row
	}
	return week
}

func (a Availability) String() string {
	return fmt.Sprintf("day=%d %s-%s active=%t", a.DayOfWeek, a.StartTime, a.EndTime, a.IsActive)
}
