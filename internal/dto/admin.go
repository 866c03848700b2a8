package dto

import "time"

// VerifyInstituteRequest records the admin decision on an institute.
type VerifyInstituteRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

// DocumentLink is a time limited link to a verification document.
type DocumentLink struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
