package domain

import "errors"

var (
	// ErrFetchExhausted marks a page that could not be fetched within the retry budget
	ErrFetchExhausted = errors.New("fetch retries exhausted")
	// ErrNoDestination means no table is routed for a record
	ErrNoDestination = errors.New("no destination table")
	// ErrFinalized is returned when adding to an aggregation that was already finalized
	ErrFinalized = errors.New("aggregation already finalized")
)
