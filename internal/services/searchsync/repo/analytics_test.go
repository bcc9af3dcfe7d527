package repo

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"gscsync/internal/adapters/searchconsole"
	"gscsync/internal/services/searchsync/domain"

	json "github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
)

const scBase = "https://gsc.test/webmasters/v3"

func TestAnalytics_QueryMapsRequestAndRows(t *testing.T) {
	mt := httpmock.NewMockTransport()
	a := NewAnalytics(searchconsole.New(&http.Client{Transport: mt}, searchconsole.Options{BaseURL: scBase}))

	var got searchconsole.QueryRequest
	mt.RegisterResponder(http.MethodPost, scBase+"/sites/sc-domain:example.com/searchAnalytics/query",
		func(req *http.Request) (*http.Response, error) {
			b, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(b, &got)
			return httpmock.NewStringResponse(200,
				`{"rows":[{"keys":["2024-03-11","MOBILE"],"clicks":2,"impressions":40,"ctr":0.05,"position":3.5}]}`), nil
		})

	filters, _ := domain.BuildFilters("fr", "mobile")
	rows, err := a.Query(context.Background(), domain.Query{
		SiteURL:    "sc-domain:example.com",
		Start:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Dimensions: domain.ModeWeeklyDevice.Dimensions(),
		Filters:    filters,
		StartRow:   0,
		RowLimit:   25000,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got.StartDate != "2024-03-11" || got.EndDate != "2024-03-17" || got.RowLimit != 25000 {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Dimensions) != 2 || got.Dimensions[1] != "device" {
		t.Fatalf("dimensions = %v", got.Dimensions)
	}
	g := got.DimensionFilterGroups
	if len(g) != 1 || g[0].GroupType != "and" || g[0].Filters[0].Expression != "fra" || g[0].Filters[1].Expression != "MOBILE" {
		t.Fatalf("filters = %+v", g)
	}
	if len(rows) != 1 || rows[0].Keys[1] != "MOBILE" || rows[0].Impressions != 40 || rows[0].Position != 3.5 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestAnalytics_ListSites(t *testing.T) {
	mt := httpmock.NewMockTransport()
	a := NewAnalytics(searchconsole.New(&http.Client{Transport: mt}, searchconsole.Options{BaseURL: scBase}))
	mt.RegisterResponder(http.MethodGet, scBase+"/sites", httpmock.NewStringResponder(200,
		`{"siteEntry":[{"siteUrl":"https://example.com/","permissionLevel":"siteOwner"}]}`))

	sites, err := a.ListSites(context.Background())
	if err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	if len(sites) != 1 || sites[0].URL != "https://example.com/" || sites[0].PermissionLevel != "siteOwner" {
		t.Fatalf("sites = %+v", sites)
	}
}
