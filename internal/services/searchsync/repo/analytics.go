// Package repo binds the sync domain ports to the Search Console, Notion, Postgres and ClickHouse backends
package repo

import (
	"context"

	"gscsync/internal/adapters/searchconsole"
	tim "gscsync/internal/platform/time"
	"gscsync/internal/services/searchsync/domain"
)

// Analytics adapts the Search Console client to domain.SearchAnalytics
type Analytics struct {
	c *searchconsole.Client
}

// NewAnalytics wraps c
func NewAnalytics(c *searchconsole.Client) *Analytics { return &Analytics{c: c} }

// Query fetches one page
func (a *Analytics) Query(ctx context.Context, q domain.Query) ([]domain.Row, error) {
	req := searchconsole.QueryRequest{
		StartDate: tim.FormatDate(q.Start),
		EndDate:   tim.FormatDate(q.End),
		RowLimit:  q.RowLimit,
		StartRow:  q.StartRow,
	}
	for _, d := range q.Dimensions {
		req.Dimensions = append(req.Dimensions, string(d))
	}
	for _, g := range q.Filters {
		fg := searchconsole.FilterGroup{GroupType: "and"}
		for _, f := range g.Filters {
			fg.Filters = append(fg.Filters, searchconsole.Filter{
				Dimension:  string(f.Dimension),
				Operator:   f.Operator,
				Expression: f.Expression,
			})
		}
		req.DimensionFilterGroups = append(req.DimensionFilterGroups, fg)
	}

	resp, err := a.c.Query(ctx, q.SiteURL, req)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.Row, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		rows = append(rows, domain.Row{
			Keys: r.Keys,
			Metrics: domain.Metrics{
				Clicks:      r.Clicks,
				Impressions: r.Impressions,
				CTR:         r.CTR,
				Position:    r.Position,
			},
		})
	}
	return rows, nil
}

// ListSites returns the properties visible to the credentials
func (a *Analytics) ListSites(ctx context.Context) ([]domain.Site, error) {
	entries, err := a.c.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Site, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Site{URL: e.SiteURL, PermissionLevel: e.PermissionLevel})
	}
	return out, nil
}
