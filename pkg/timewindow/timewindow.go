// Package timewindow converts wall-clock instants into the weekday and minute offsets
// used to match recurring lab sessions.
package timewindow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay bounds the values returned by MinutesOfDay.
const MinutesPerDay = 24 * 60

var (
	// ErrMalformedTime is returned when a clock value is not a 24-hour HH:MM string.
	ErrMalformedTime = errors.New("malformed time")
	// ErrMalformedDay is returned for day names outside the seven weekdays.
	ErrMalformedDay = errors.New("malformed day of week")
	// ErrEmptyWindow is returned when a window does not start before it ends.
	ErrEmptyWindow = errors.New("window start must be before end")
)

// Day is the closed set of weekdays a session can recur on.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
	Sunday    Day = "SUNDAY"
)

var weekdays = map[time.Weekday]Day{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// Valid reports whether d is one of the seven weekdays.
func (d Day) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	default:
		return false
	}
}

// ParseDay accepts full weekday names or their three letter abbreviations, case-insensitively.
func ParseDay(raw string) (Day, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if len(value) == 3 {
		for _, day := range weekdays {
			if strings.HasPrefix(string(day), value) {
				return day, nil
			}
		}
	}
	day := Day(value)
	if !day.Valid() {
		return "", fmt.Errorf("%w: %q", ErrMalformedDay, raw)
	}
	return day, nil
}

// Scan implements sql.Scanner. Stored names pass through ParseDay, so "Monday" and "mon" read as Monday.
func (d *Day) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrMalformedDay, src)
	}
	day, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// DayOf returns the weekday of t in t's own location.
func DayOf(t time.Time) Day {
	return weekdays[t.Weekday()]
}

// MinutesOfDay returns minutes elapsed since local midnight, in [0, 1440).
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// CalendarDate returns t's calendar day, as observed in t's own location, at UTC midnight. DATE
// columns store it without shifting to a neighbouring day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseClock parses a strict 24-hour HH:MM value into minutes since midnight.
func ParseClock(raw string) (int, error) {
	if len(raw) != 5 || raw[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}
	hour, okH := twoDigits(raw[0], raw[1])
	minute, okM := twoDigits(raw[3], raw[4])
	if !okH || !okM || hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}
	return hour*60 + minute, nil
}

// NormalizeClock trims a stored clock value to HH:MM. Postgres TIME columns render as HH:MM:SS,
// optionally with fractional seconds; the seconds are dropped. Anything else is returned trimmed
// and left for ParseClock to reject.
func NormalizeClock(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) >= 8 && value[2] == ':' && value[5] == ':' {
		return value[:5]
	}
	return value
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// InWindow reports start <= minute <= end. Both bounds are inclusive.
func InWindow(minute, start, end int) bool {
	return start <= minute && minute <= end
}

// Window is a same-day span expressed in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// ParseWindow parses HH:MM bounds and enforces start < end.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if s >= e {
		return Window{}, fmt.Errorf("%w: %s-%s", ErrEmptyWindow, start, end)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether the wall-clock minute of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return InWindow(MinutesOfDay(t), w.Start, w.End)
}

func (w Window) String() string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
