package searchconsole

// QueryRequest is the searchanalytics.query body
type QueryRequest struct {
	StartDate             string        `json:"startDate"`
	EndDate               string        `json:"endDate"`
	Dimensions            []string      `json:"dimensions,omitempty"`
	RowLimit              int           `json:"rowLimit,omitempty"`
	StartRow              int           `json:"startRow"`
	DimensionFilterGroups []FilterGroup `json:"dimensionFilterGroups,omitempty"`
	DataState             string        `json:"dataState,omitempty"`
}

// FilterGroup ANDs its filters; several groups are ORed
type FilterGroup struct {
	GroupType string   `json:"groupType,omitempty"`
	Filters   []Filter `json:"filters"`
}

// Filter is one dimension predicate
type Filter struct {
	Dimension  string `json:"dimension"`
	Operator   string `json:"operator"`
	Expression string `json:"expression"`
}

// QueryResponse is one page of rows
type QueryResponse struct {
	Rows                    []Row  `json:"rows"`
	ResponseAggregationType string `json:"responseAggregationType"`
}

// Row holds dimension values in request order plus metrics
type Row struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// SiteEntry is one property visible to the caller
type SiteEntry struct {
	SiteURL         string `json:"siteUrl"`
	PermissionLevel string `json:"permissionLevel"`
}

type sitesResponse struct {
	SiteEntry []SiteEntry `json:"siteEntry"`
}
