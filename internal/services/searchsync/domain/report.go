package domain

import (
	"fmt"
	"strings"
	"time"

	tim "gscsync/internal/platform/time"
)

// Outcome of one upsert
type Outcome string

// Upsert outcomes
const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// Counts tallies upsert outcomes
type Counts struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Add counts one outcome
func (c *Counts) Add(o Outcome) {
	switch o {
	case OutcomeCreated:
		c.Created++
	case OutcomeUpdated:
		c.Updated++
	case OutcomeSkipped:
		c.Skipped++
	}
}

// DateReport is the progress of one detail date
type DateReport struct {
	Date      time.Time
	Rows      int
	Malformed int
	Counts
}

// Failure is one record that could not be written
type Failure struct {
	Key   string
	Table string
	Err   error
}

// Report summarizes a run
type Report struct {
	RunID    string
	SiteURL  string
	Mode     Mode
	Window   Window
	DryRun   bool
	Dates    []DateReport
	Buckets   int
	Rows      int
	Malformed int
	Counts    Counts
	Failures []Failure
	Duration time.Duration
}

// Summary renders a short human readable report
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "site %s, mode %s, window %s", r.SiteURL, r.Mode, r.Window)
	if r.DryRun {
		b.WriteString(" (dry run)")
	}
	b.WriteString("\n")
	for _, d := range r.Dates {
		fmt.Fprintf(&b, "  %s: %d rows, %d created, %d updated, %d failed",
			tim.FormatDate(d.Date), d.Rows, d.Created, d.Updated, d.Failed)
		if d.Malformed > 0 {
			fmt.Fprintf(&b, ", %d malformed", d.Malformed)
		}
		b.WriteString("\n")
	}
	if r.Mode == ModeWeeklyDevice {
		fmt.Fprintf(&b, "  %d buckets from %d rows\n", r.Buckets, r.Rows)
	}
	if r.Malformed > 0 {
		fmt.Fprintf(&b, "  %d malformed rows dropped\n", r.Malformed)
	}
	fmt.Fprintf(&b, "total: %d created, %d updated, %d skipped, %d failed in %s",
		r.Counts.Created, r.Counts.Updated, r.Counts.Skipped, r.Counts.Failed, r.Duration.Round(time.Millisecond))
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  failed %s [%s]: %v", f.Key, f.Table, f.Err)
	}
	return b.String()
}
