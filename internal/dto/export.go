package dto

import "github.com/noah-isme/labgate-api/internal/models"

// ExportRequest captures POST /attendance/exports.
type ExportRequest struct {
	SessionID string              `json:"sessionId,omitempty" validate:"omitempty,max=64"`
	SubjectID string              `json:"subjectId,omitempty" validate:"omitempty,max=64"`
	DateFrom  string              `json:"dateFrom" validate:"required,datetime=2006-01-02"`
	DateTo    string              `json:"dateTo" validate:"required,datetime=2006-01-02"`
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
