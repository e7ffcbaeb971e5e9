package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used across the appointment domain.
const DateLayout = "2006-01-02"

// MinutesPerDay bounds clock offsets produced by ParseClock.
const MinutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" 24h clock string into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("timeutil: invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid clock value %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timeutil: clock value %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as a zero-padded "HH:MM" string.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	minutes %= MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a calendar day in "YYYY-MM-DD" form. The returned time is
// midnight UTC; callers treat it as a date, not an instant.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date %q", value)
	}
	return day, nil
}

// FormatDate renders a time as the calendar day it falls on.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Interval is a half-open minute range [Start, End) within a single day.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds the occupied interval for a booking starting at start
// minutes and lasting duration minutes.
func NewInterval(start, duration int) Interval {
	return Interval{Start: start, End: start + duration}
}

// Intersects reports whether two half-open intervals share any minute.
// Touching boundaries (a.End == b.Start) do not intersect.
func (i Interval) Intersects(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// GapTo returns the number of minutes between the end of the earlier interval
// and the start of the later one. Intersecting intervals report a zero gap.
func (i Interval) GapTo(other Interval) int {
	if i.Intersects(other) {
		return 0
	}
	if i.End <= other.Start {
		return other.Start - i.End
	}
	return i.Start - other.End
}

// Duration returns the interval length in minutes.
func (i Interval) Duration() int {
	return i.End - i.Start
}
