package dto

// CreateBookingRequest reserves a generated slot.
type CreateBookingRequest struct {
	CounselorID string  `json:"counselor_id" validate:"required"`
	SlotID      string  `json:"slot_id" validate:"required"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

// BookingDecisionRequest approves or rejects a pending booking. SlotID, when
// present, must match the booking's slot.
type BookingDecisionRequest struct {
	SlotID string  `json:"slot_id"`
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
