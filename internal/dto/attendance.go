package dto

import (
	"time"

	"github.com/noah-isme/labgate-api/internal/models"
)

// AttendanceListRequest captures GET /attendance query parameters.
type AttendanceListRequest struct {
	SubjectID string
	SessionID string
	DateFrom  *time.Time
	DateTo    *time.Time
	OpenOnly  bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CloseSessionRequest captures POST /sessions/:id/close. Date defaults to today.
type CloseSessionRequest struct {
	Date string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CloseSessionResponse reports how many open records were closed.
type CloseSessionResponse struct {
	SessionID string    `json:"session_id"`
	Date      string    `json:"date"`
	Closed    int64     `json:"closed"`
	TimeOut   time.Time `json:"time_out"`
}

// AttendanceRecordResponse wraps a single record.
type AttendanceRecordResponse struct {
	Record models.AttendanceRecord `json:"record"`
}
