package dto

import "github.com/noah-isme/labgate-api/internal/models"

// ScanRequest captures POST /scanner/:device/scans.
type ScanRequest struct {
	Payload   string `json:"payload" validate:"max=4096"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=64"`
}

// ScanResponse reports the verdict and what the door controller did with it.
type ScanResponse struct {
	Device   string                 `json:"device"`
	Verdict  models.Verdict         `json:"verdict"`
	Dispatch models.DispatchOutcome `json:"dispatch"`
}
