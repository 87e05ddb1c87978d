package models

import "time"

// AttendanceRecord is the durable fact of a subject entering a session. TimeOut stays nil
// until an operator closes the record; scanning never closes it.
type AttendanceRecord struct {
	ID             string     `db:"id" json:"id"`
	SubjectID      string     `db:"subject_id" json:"subject_id"`
	SessionID      string     `db:"session_id" json:"session_id"`
	AttendanceDate time.Time  `db:"attendance_date" json:"attendance_date"`
	TimeIn         time.Time  `db:"time_in" json:"time_in"`
	TimeOut        *time.Time `db:"time_out" json:"time_out,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Open reports whether the record has not been closed yet.
func (r AttendanceRecord) Open() bool {
	return r.TimeOut == nil
}

// AttendanceRecordDetail extends the record with subject and session metadata.
type AttendanceRecordDetail struct {
	AttendanceRecord
	SubjectName string  `db:"subject_name" json:"subject_name"`
	SessionName string  `db:"session_name" json:"session_name"`
	CourseName  *string `db:"course_name" json:"course_name,omitempty"`
}

// AttendanceFilter defines query filters.
type AttendanceFilter struct {
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
