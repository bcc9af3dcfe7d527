package searchconsole

import (
	"context"
	"net/http"
	"net/url"

	perr "gscsync/internal/platform/errors"
)

// MaxRowLimit is the largest page the API returns
const MaxRowLimit = 25000

// Query calls searchanalytics.query for one page
func (c *Client) Query(ctx context.Context, siteURL string, q QueryRequest) (QueryResponse, error) {
	if siteURL == "" {
		return QueryResponse{}, perr.InvalidArgf("searchconsole: empty site url")
	}
	path := "/sites/" + url.PathEscape(siteURL) + "/searchAnalytics/query"
	var out QueryResponse
	if err := c.do(ctx, "query", http.MethodPost, path, q, &out); err != nil {
		return QueryResponse{}, err
	}
	return out, nil
}

// ListSites calls sites.list
func (c *Client) ListSites(ctx context.Context) ([]SiteEntry, error) {
	var out sitesResponse
	if err := c.do(ctx, "sites.list", http.MethodGet, "/sites", nil, &out); err != nil {
		return nil, err
	}
	return out.SiteEntry, nil
}
