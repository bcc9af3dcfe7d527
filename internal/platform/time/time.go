// Package time contains calendar date helpers. All dates are UTC midnights.
package time

import "time"

// DateLayout is the ISO calendar date format used on the wire
const DateLayout = "2006-01-02"

// Day is one calendar day
const Day = 24 * time.Hour

// ParseDate parses YYYY-MM-DD into a UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Truncate drops the clock part of t, keeping the calendar date in t's location, and returns it as UTC
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves t by n calendar days
func AddDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// DaysBetween counts calendar days from a to b inclusive; zero when b is before a
func DaysBetween(a, b time.Time) int {
	a, b = Truncate(a), Truncate(b)
	if b.Before(a) {
		return 0
	}
	return int(b.Sub(a)/Day) + 1
}
