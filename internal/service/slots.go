package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

const defaultSlotDuration = time.Hour

// GenerateDaySlots expands one day of a weekly template into consecutive
// slots of the given duration. A trailing interval shorter than duration is dropped.
func GenerateDaySlots(day models.Availability, date time.Time, duration time.Duration) []models.TimeSlot {
	if !day.IsActive || int(date.Weekday()) != day.DayOfWeek {
		return nil
	}
	if duration <= 0 {
		duration = defaultSlotDuration
	}
	start, err := parseClock(day.StartTime)
	if err != nil {
		return nil
	}
	end, err := parseClock(day.EndTime)
	if err != nil {
		return nil
	}

	base := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var slots []models.TimeSlot
	for cursor := base.Add(start); !cursor.Add(duration).After(base.Add(end)); cursor = cursor.Add(duration) {
		slotEnd := cursor.Add(duration)
		key := models.NewSlotKey(day.CounselorID, cursor)
		slots = append(slots, models.TimeSlot{
			ID:          key.String(),
			CounselorID: day.CounselorID,
			Date:        key.Date,
			StartTime:   key.StartTime,
			EndTime:     slotEnd.Format(models.TimeLayout),
			Status:      models.SlotAvailable,
		})
	}
	return slots
}

// GenerateRangeSlots expands the weekly template over the inclusive range [from, to].
func GenerateRangeSlots(counselorID string, rows []models.Availability, from, to time.Time, duration time.Duration) []models.TimeSlot {
	week := models.FullWeek(counselorID, rows)
	var slots []models.TimeSlot
	for day := truncateDay(from); !day.After(truncateDay(to)); day = day.AddDate(0, 0, 1) {
		slots = append(slots, GenerateDaySlots(week[int(day.Weekday())], day, duration)...)
	}
	return slots
}

// parseClock returns the offset from midnight for HH:MM or HH:MM:SS.
func parseClock(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{models.TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time %q", raw)
}

// normalizeClock rewrites HH:MM or HH:MM:SS as HH:MM:SS.
func normalizeClock(raw string) (string, error) {
	offset, err := parseClock(raw)
	if err != nil {
		return "", err
	}
	return time.Time{}.Add(offset).Format(models.TimeLayout), nil
}

// normalizeDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the calendar day in UTC.
func normalizeDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return truncateDay(t.UTC()), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
