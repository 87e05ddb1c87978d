package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)

	minutes, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, minutes)

	minutes, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, MinutesPerDay-1, minutes)
}

func TestParseClockRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "9:30", "24:00", "12:60", "12-30", "ab:cd", "09:30:00", " 9:30"} {
		_, err := ParseClock(raw)
		assert.ErrorIs(t, err, ErrMalformedTime, raw)
	}
}

func TestInWindowInclusiveBounds(t *testing.T) {
	w, err := ParseWindow("09:00", "11:00")
	require.NoError(t, err)

	at := func(h, m int) time.Time { return time.Date(2024, 5, 6, h, m, 0, 0, time.UTC) }
	assert.True(t, w.Contains(at(9, 0)))
	assert.True(t, w.Contains(at(11, 0)))
	assert.True(t, w.Contains(at(10, 15)))
	assert.False(t, w.Contains(at(8, 59)))
	assert.False(t, w.Contains(at(11, 1)))
}

func TestParseWindowRequiresStartBeforeEnd(t *testing.T) {
	_, err := ParseWindow("11:00", "09:00")
	assert.ErrorIs(t, err, ErrEmptyWindow)

	_, err = ParseWindow("10:00", "10:00")
	assert.ErrorIs(t, err, ErrEmptyWindow)

	_, err = ParseWindow("10:00", "1O:30")
	assert.ErrorIs(t, err, ErrMalformedTime)
}

func TestDayOfAndParseDay(t *testing.T) {
	// 2024-05-06 is a Monday.
	assert.Equal(t, Monday, DayOf(time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, DayOf(time.Date(2024, 5, 12, 23, 59, 0, 0, time.UTC)))

	day, err := ParseDay("wed")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	day, err = ParseDay("Friday")
	require.NoError(t, err)
	assert.Equal(t, Friday, day)

	_, err = ParseDay("Funday")
	assert.ErrorIs(t, err, ErrMalformedDay)
}

func TestDayOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	// Sunday 20:00 UTC is already Monday 04:00 at UTC+8.
	instant := time.Date(2024, 5, 5, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, Sunday, DayOf(instant))
	assert.Equal(t, Monday, DayOf(instant.In(loc)))
	assert.Equal(t, 4*60, MinutesOfDay(instant.In(loc)))
}

func TestCalendarDateAndFormat(t *testing.T) {
	ts := time.Date(2024, 5, 6, 17, 42, 10, 5, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), CalendarDate(ts))
	manila := time.FixedZone("PHT", 8*60*60)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), CalendarDate(ts.In(manila)))
	assert.Equal(t, "07:05", FormatClock(425))
	assert.Equal(t, "09:00-11:00", Window{Start: 540, End: 660}.String())
}

func TestDayScanNormalisesStoredNames(t *testing.T) {
	var day Day
	require.NoError(t, day.Scan("Monday"))
	assert.Equal(t, Monday, day)
	require.NoError(t, day.Scan([]byte(" tue ")))
	assert.Equal(t, Tuesday, day)

	assert.ErrorIs(t, day.Scan("Funday"), ErrMalformedDay)
	assert.ErrorIs(t, day.Scan(int64(1)), ErrMalformedDay)
	assert.ErrorIs(t, day.Scan(nil), ErrMalformedDay)
}

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "09:00", NormalizeClock("09:00"))
	assert.Equal(t, "09:00", NormalizeClock("09:00:00"))
	assert.Equal(t, "11:00", NormalizeClock("11:00:59.123456"))
	assert.Equal(t, "9:00", NormalizeClock(" 9:00 "))

	_, err := ParseClock(NormalizeClock("9:00"))
	assert.ErrorIs(t, err, ErrMalformedTime)
}
