package dto

import "time"

// CredentialResponse is the badge screen payload. Payload is the exact text encoded in the QR code.
type CredentialResponse struct {
	SubjectID   string    `json:"subject_id"`
	Name        string    `json:"name"`
	Course      string    `json:"course,omitempty"`
	Section     string    `json:"section,omitempty"`
	Payload     string    `json:"payload"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	RemainingMs int64     `json:"remaining_ms"`
	PeriodMs    int64     `json:"period_ms"`
	// Issued is false when a refresh was coalesced into one already in flight.
	Issued bool `json:"issued"`
}
