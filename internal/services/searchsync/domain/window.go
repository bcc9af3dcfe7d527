package domain

import (
	"fmt"
	"iter"
	"time"

	perr "gscsync/internal/platform/errors"
	tim "gscsync/internal/platform/time"
)

// Window is an inclusive range of UTC calendar days
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds an explicit window; start must not be after end
func NewWindow(start, end time.Time) (Window, error) {
	s, e := tim.Truncate(start), tim.Truncate(end)
	if s.After(e) {
		return Window{}, perr.Configf("start", "start %s is after end %s", tim.FormatDate(s), tim.FormatDate(e))
	}
	return Window{Start: s, End: e}, nil
}

// RollingWindow ends lagDays before today and spans daysBack days
func RollingWindow(today time.Time, daysBack, lagDays int) (Window, error) {
	if daysBack < 1 {
		return Window{}, perr.Configf("days-back", "days-back must be at least 1, got %d", daysBack)
	}
	if lagDays < 0 {
		return Window{}, perr.Configf("lag-days", "lag-days must not be negative, got %d", lagDays)
	}
	end := tim.AddDays(tim.Truncate(today), -lagDays)
	return Window{Start: tim.AddDays(end, -(daysBack - 1)), End: end}, nil
}

// Days yields each date of the window in ascending order
func (w Window) Days() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := w.Start; !d.After(w.End); d = tim.AddDays(d, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Len is the number of days in the window
func (w Window) Len() int { return tim.DaysBetween(w.Start, w.End) }

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", tim.FormatDate(w.Start), tim.FormatDate(w.End))
}

// WeekStart returns the Monday of d's week
func WeekStart(d time.Time) time.Time {
	d = tim.Truncate(d)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0
	return tim.AddDays(d, -offset)
}
