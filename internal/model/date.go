package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInRange returns the number of calendar days in [start, end], inclusive.
// It returns 0 when end is before start.
func DaysInRange(start, end time.Time) int {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
