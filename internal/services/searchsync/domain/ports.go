package domain

import "context"

// SearchAnalytics is the analytics source
type SearchAnalytics interface {
	Query(ctx context.Context, q Query) ([]Row, error)
	ListSites(ctx context.Context) ([]Site, error)
}

// Destination stores records keyed by their identity string, one table at a time
type Destination interface {
	Lookup(ctx context.Context, table, key string) (id string, found bool, err error)
	Create(ctx context.Context, table string, rec Record) (id string, err error)
	Update(ctx context.Context, table, id string, rec Record) error
	Validate(ctx context.Context, table string, mode Mode) error
}

// RunnerPort is what the CLI drives
type RunnerPort interface {
	Run(ctx context.Context, p Params) (Report, error)
	ListSites(ctx context.Context) ([]Site, error)
}
