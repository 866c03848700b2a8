package dto

// CreateCounselorRequest provisions a counselor account under an institute.
type CreateCounselorRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FullName   string `json:"full_name" validate:"required,max=120"`
	Speciality string `json:"speciality" validate:"omitempty,max=120"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
}

// CounselorStatusRequest activates or deactivates a counselor.
type CounselorStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AvailabilityDay is one day of the weekly template. Times accept HH:MM or HH:MM:SS.
type AvailabilityDay struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	IsActive  bool   `json:"is_active"`
}

// GenerateSlotsRequest pre-materializes slots over an inclusive date range.
type GenerateSlotsRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// GenerateSlotsResult reports how many slots the range covers.
type GenerateSlotsResult struct {
	CounselorID string `json:"counselor_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Slots       int    `json:"slots"`
}
