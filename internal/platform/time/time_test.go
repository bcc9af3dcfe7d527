package time

import (
	"testing"
	"time"
)

func TestParseFormatDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("want UTC midnight, got %v", d)
	}
	if FormatDate(d) != "2024-03-15" {
		t.Fatalf("FormatDate = %q", FormatDate(d))
	}
	if _, err := ParseDate("15/03/2024"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestTruncateKeepsLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2024, 3, 15, 2, 30, 0, 0, loc) // still the 14th in UTC
	got := Truncate(in)
	if FormatDate(got) != "2024-03-15" || got.Location() != time.UTC {
		t.Fatalf("Truncate = %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a, _ := ParseDate("2024-02-27")
	b, _ := ParseDate("2024-03-02") // leap year
	if n := DaysBetween(a, b); n != 5 {
		t.Fatalf("DaysBetween = %d, want 5", n)
	}
	if DaysBetween(a, a) != 1 {
		t.Fatalf("same day should count once")
	}
	if DaysBetween(b, a) != 0 {
		t.Fatalf("reversed range should be empty")
	}
	if FormatDate(AddDays(a, 3)) != "2024-03-01" {
		t.Fatalf("AddDays across leap day")
	}
}
