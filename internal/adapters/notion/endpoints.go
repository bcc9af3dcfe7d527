package notion

import (
	"context"
	"net/http"
	"net/url"

	perr "gscsync/internal/platform/errors"
)

// QueryDatabase runs a filtered database query (one page of results)
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, q QueryRequest) (QueryResponse, error) {
	if databaseID == "" {
		return QueryResponse{}, perr.InvalidArgf("notion: empty database id")
	}
	var out QueryResponse
	err := c.do(ctx, "databases.query", http.MethodPost, "/databases/"+url.PathEscape(databaseID)+"/query", q, &out)
	return out, err
}

// RetrieveDatabase returns the database with its property schema
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (Database, error) {
	if databaseID == "" {
		return Database{}, perr.InvalidArgf("notion: empty database id")
	}
	var out Database
	err := c.do(ctx, "databases.retrieve", http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, &out)
	return out, err
}

// CreatePage creates a page under a database parent
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (Page, error) {
	if databaseID == "" {
		return Page{}, perr.InvalidArgf("notion: empty database id")
	}
	in := createPageRequest{Parent: Parent{DatabaseID: databaseID}, Properties: props}
	var out Page
	err := c.do(ctx, "pages.create", http.MethodPost, "/pages", in, &out)
	return out, err
}

// UpdatePage overwrites the given properties of a page; properties not sent are left as is
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) (Page, error) {
	if pageID == "" {
		return Page{}, perr.InvalidArgf("notion: empty page id")
	}
	var out Page
	err := c.do(ctx, "pages.update", http.MethodPatch, "/pages/"+url.PathEscape(pageID), updatePageRequest{Properties: props}, &out)
	return out, err
}
