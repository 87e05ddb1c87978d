package models

import (
	"time"

	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

// LabSession is a weekly recurring lab slot. StartTime and EndTime are HH:MM strings.
type LabSession struct {
	ID         string         `db:"id" json:"id"`
	CourseID   string         `db:"course_id" json:"course_id"`
	CourseName *string        `db:"course_name" json:"course_name,omitempty"`
	Name       string         `db:"name" json:"name"`
	DayOfWeek  timewindow.Day `db:"day_of_week" json:"day_of_week"`
	StartTime  string         `db:"start_time" json:"start_time"`
	EndTime    string         `db:"end_time" json:"end_time"`
	Section    *string        `db:"section" json:"section,omitempty"`
	Room       *string        `db:"room" json:"room,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Window parses the session's start and end times.
func (s LabSession) Window() (timewindow.Window, error) {
	return timewindow.ParseWindow(s.StartTime, s.EndTime)
}

// ActiveAt reports whether the session runs on t's weekday and t's minute is inside its window.
func (s LabSession) ActiveAt(t time.Time) (bool, error) {
	window, err := s.Window()
	if err != nil {
		return false, err
	}
	return s.DayOfWeek == timewindow.DayOf(t) && window.Contains(t), nil
}
