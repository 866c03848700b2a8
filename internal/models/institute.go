package models

import "time"

// Institute is a university or college that onboards students and counselors.
type Institute struct {
	ID                      string    `db:"id" json:"id"`
	UserID                  string    `db:"user_id" json:"user_id"`
	InstituteName           string    `db:"institute_name" json:"institute_name"`
	Address                 string    `db:"address" json:"address"`
	Phone                   string    `db:"phone" json:"phone"`
	Website                 string    `db:"website" json:"website"`
	VerificationDocumentKey *string   `db:"verification_document_key" json:"-"`
	VerificationDocumentURL *string   `db:"verification_document_url" json:"verification_document_url,omitempty"`
	Verified                bool      `db:"verified" json:"verified"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
}

// InstituteOption is the public projection offered on student sign-up.
type InstituteOption struct {
	ID            string `db:"id" json:"id"`
	InstituteName string `db:"institute_name" json:"institute_name"`
}
