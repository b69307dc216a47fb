package shard

import (
	"strings"
	"time"

	"github.com/luffluo/ormsupport"
)

// Clock is the source of "now" for period resolution.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return ClockFunc(time.Now) }

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddMonthsNoOverflow adds n months to t, clamping the day to the last
// day of the target month: Jan 31 + 1 month is Feb 28 (or 29).
func AddMonthsNoOverflow(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfWeek returns midnight of the first day of t's week, where weeks
// begin on start.
func StartOfWeek(t time.Time, start time.Weekday) time.Time {
	day := StartOfDay(t)
	diff := (int(day.Weekday()) - int(start) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// EndOfWeek returns the last instant of t's week, where weeks begin on start.
func EndOfWeek(t time.Time, start time.Weekday) time.Time {
	return StartOfWeek(t, start).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// Layouts tried by ParseTime after the year-month forms.
var timeLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"20060102",
}

// ParseTime parses a period bound. Six characters are read as "YYYYMM",
// seven as "YYYY-MM", and anything else as a date or timestamp. Values
// without a zone are interpreted in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	var layouts []string
	switch len(value) {
	case 6:
		layouts = []string{"200601"}
	case 7:
		layouts = []string{"2006-01"}
	default:
		layouts = timeLayouts
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ormsupport.NewArgumentError("value", value, "expected YYYYMM, YYYY-MM or a date")
}
