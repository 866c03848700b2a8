package models

import (
	"errors"
	"strings"
	"time"
)

// SlotStatus is the reservation state of a generated slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotPending   SlotStatus = "pending"
	SlotBooked    SlotStatus = "booked"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	slotKeySeparator = "|"
)

// ErrMalformedSlotKey is returned for identifiers that do not decompose into counselor, date and time.
var ErrMalformedSlotKey = errors.New("malformed slot identifier")

// TimeSlot is a bookable interval materialized from a counselor's template.
type TimeSlot struct {
	ID          string     `db:"id" json:"id"`
	CounselorID string     `db:"counselor_id" json:"counselor_id"`
	Date        string     `db:"slot_date" json:"date"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	Status      SlotStatus `db:"status" json:"status,omitempty"`
}

// SlotKey is the decomposed form of a slot identifier
// "<counselorID>|<YYYY-MM-DD>|<HH:MM:SS>".
type SlotKey struct {
	CounselorID string
	Date        string
	StartTime   string
}

// NewSlotKey builds the key for a counselor's slot starting at start.
func NewSlotKey(counselorID string, start time.Time) SlotKey {
	return SlotKey{CounselorID: counselorID, Date: start.Format(DateLayout), StartTime: start.Format(TimeLayout)}
}

func (k SlotKey) String() string {
	return k.CounselorID + slotKeySeparator + k.Date + slotKeySeparator + k.StartTime
}

// Start returns the slot start as a UTC wall-clock time.
func (k SlotKey) Start() time.Time {
	t, _ := time.Parse(DateLayout+" "+TimeLayout, k.Date+" "+k.StartTime)
	return t
}

// ParseSlotKey decomposes an identifier. It performs no I/O.
func ParseSlotKey(raw string) (SlotKey, error) {
	parts := strings.Split(raw, slotKeySeparator)
	if len(parts) != 3 {
		return SlotKey{}, ErrMalformedSlotKey
	}
	key := SlotKey{CounselorID: parts[0], Date: parts[1], StartTime: parts[2]}
	if key.CounselorID == "" {
		return SlotKey{}, ErrMalformedSlotKey
	}
	if _, err := time.Parse(DateLayout, key.Date); err != nil {
		return SlotKey{}, ErrMalformedSlotKey
	}
	if _, err := time.Parse(TimeLayout, key.StartTime); err != nil {
		return SlotKey{}, ErrMalformedSlotKey
	}
	return key, nil
}
