// Package aggregate folds daily rows into weekly device buckets
package aggregate

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"gscsync/internal/services/searchsync/domain"
)

// Bucket accumulates additive sums; derived metrics are computed on read
type Bucket struct {
	clicks      float64
	impressions float64
	posWeighted float64
}

// Add folds one observation into the bucket
func (b *Bucket) Add(m domain.Metrics) {
	b.clicks += m.Clicks
	b.impressions += m.Impressions
	b.posWeighted += m.Position * m.Impressions
}

// Metrics derives ctr and impression-weighted position, both 0 without impressions
func (b Bucket) Metrics() domain.Metrics {
	m := domain.Metrics{Clicks: b.clicks, Impressions: b.impressions}
	if b.impressions > 0 {
		m.CTR = b.clicks / b.impressions
		m.Position = b.posWeighted / b.impressions
	}
	return m
}

// Sample is one daily observation for a device
type Sample struct {
	Date   time.Time
	Device string
	domain.Metrics
}

// Entry is a finalized bucket
type Entry struct {
	Key     domain.WeeklyKey
	Metrics domain.Metrics
}

type bucketKey struct {
	week   int64
	device string
}

// Aggregator groups samples by week start and device. It is single use:
// once Finalize ran, Add and Finalize return domain.ErrFinalized.
type Aggregator struct {
	buckets map[bucketKey]*Bucket
	weeks   map[int64]time.Time
	samples int
	done    bool
}

// New returns an empty Aggregator
func New() *Aggregator {
	return &Aggregator{
		buckets: map[bucketKey]*Bucket{},
		weeks:   map[int64]time.Time{},
	}
}

// Add folds a sample into its bucket, creating the bucket on first use
func (a *Aggregator) Add(s Sample) error {
	if a.done {
		return domain.ErrFinalized
	}
	ws := domain.WeekStart(s.Date)
	k := bucketKey{week: ws.Unix(), device: s.Device}
	b, ok := a.buckets[k]
	if !ok {
		b = &Bucket{}
		a.buckets[k] = b
		a.weeks[k.week] = ws
	}
	b.Add(s.Metrics)
	a.samples++
	return nil
}

// Len is the number of open buckets
func (a *Aggregator) Len() int { return len(a.buckets) }

// Samples is the number of samples added
func (a *Aggregator) Samples() int { return a.samples }

// Finalize closes the aggregation and returns buckets ordered by week then device
func (a *Aggregator) Finalize() ([]Entry, error) {
	if a.done {
		return nil, domain.ErrFinalized
	}
	a.done = true
	out := make([]Entry, 0, len(a.buckets))
	for k, b := range a.buckets {
		out = append(out, Entry{
			Key:     domain.WeeklyKey{WeekStart: a.weeks[k.week], Device: k.device},
			Metrics: b.Metrics(),
		})
	}
	slices.SortFunc(out, func(x, y Entry) int {
		if c := x.Key.WeekStart.Compare(y.Key.WeekStart); c != 0 {
			return c
		}
		return cmp.Compare(x.Key.Device, y.Key.Device)
	})
	a.buckets = nil
	return out, nil
}

// Fold aggregates a finite sequence in one pass
func Fold(seq iter.Seq[Sample]) []Entry {
	a := New()
	for s := range seq {
		_ = a.Add(s)
	}
	out, _ := a.Finalize()
	return out
}
