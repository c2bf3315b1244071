package models

import (
	"fmt"
	"time"
)

// DayLayout is the wire and storage format of a calendar day.
const DayLayout = "2006-01-02"

// DayOf returns the calendar day of t as observed in loc, normalised to midnight UTC.
// Every day value in the repository uses this normalisation so days compare with ==.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", s, DayLayout)
	}
	return d, nil
}

// FormatDay formats a normalised day.
func FormatDay(d time.Time) string {
	return d.Format(DayLayout)
}

// DaysBetween returns the number of calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	a = DayOf(a, time.UTC)
	b = DayOf(b, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
