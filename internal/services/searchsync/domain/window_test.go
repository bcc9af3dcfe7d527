package domain

import (
	"slices"
	"testing"
	"time"

	perr "gscsync/internal/platform/errors"
)

func TestRollingWindow(t *testing.T) {
	today := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	w, err := RollingWindow(today, 3, 2)
	if err != nil {
		t.Fatalf("RollingWindow: %v", err)
	}
	if w.String() != "2024-03-11..2024-03-13" {
		t.Fatalf("window = %s", w)
	}
	if w.Len() != 3 {
		t.Fatalf("len = %d", w.Len())
	}

	one, _ := RollingWindow(today, 1, 0)
	if one.String() != "2024-03-15..2024-03-15" {
		t.Fatalf("single day window = %s", one)
	}
}

func TestRollingWindow_Invalid(t *testing.T) {
	if _, err := RollingWindow(time.Now(), 0, 2); !perr.IsConfig(err) {
		t.Fatalf("days-back 0: %v", err)
	}
	if _, err := RollingWindow(time.Now(), 3, -1); !perr.IsConfig(err) {
		t.Fatalf("negative lag: %v", err)
	}
}

func TestNewWindow(t *testing.T) {
	if _, err := NewWindow(day("2024-03-12"), day("2024-03-11")); !perr.IsConfig(err) {
		t.Fatalf("reversed window should be a config error, got %v", err)
	}
	w, err := NewWindow(day("2024-02-28"), day("2024-03-01"))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	var got []string
	for d := range w.Days() {
		got = append(got, d.Format("2006-01-02"))
	}
	if want := []string{"2024-02-28", "2024-02-29", "2024-03-01"}; !slices.Equal(got, want) {
		t.Fatalf("days = %v", got)
	}
}

func TestDays_StopsEarly(t *testing.T) {
	w, _ := NewWindow(day("2024-01-01"), day("2024-01-31"))
	n := 0
	for range w.Days() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("n = %d", n)
	}
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2024-03-11": "2024-03-11", // Monday
		"2024-03-13": "2024-03-11",
		"2024-03-17": "2024-03-11", // Sunday
		"2024-03-18": "2024-03-18",
		"2024-01-02": "2024-01-01",
		"2023-01-01": "2022-12-26",
	}
	for in, want := range cases {
		if got := WeekStart(day(in)).Format("2006-01-02"); got != want {
			t.Errorf("WeekStart(%s) = %s want %s", in, got, want)
		}
	}
}
