// Package domain defines the types and ports of the search analytics sync
package domain

import (
	"strings"
	"time"

	perr "gscsync/internal/platform/errors"
)

// Mode selects how rows are fetched and keyed
type Mode string

const (
	// ModeDetail syncs one record per date, query, page, country and device
	ModeDetail Mode = "detail"
	// ModeWeeklyDevice syncs one record per ISO week start and device
	ModeWeeklyDevice Mode = "weekly-device"
)

// ParseMode accepts detail or weekly-device
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDetail, ModeWeeklyDevice:
		return m, nil
	case "":
		return ModeDetail, nil
	default:
		return "", perr.Configf("mode", "mode must be detail or weekly-device, got %q", s)
	}
}

// Dimensions are the grouping dimensions requested for the mode, in key order
func (m Mode) Dimensions() []Dimension {
	if m == ModeWeeklyDevice {
		return []Dimension{DimDate, DimDevice}
	}
	return []Dimension{DimDate, DimQuery, DimPage, DimCountry, DimDevice}
}

// Dimension is a search analytics grouping dimension
type Dimension string

// Dimensions understood by the analytics API
const (
	DimDate    Dimension = "date"
	DimQuery   Dimension = "query"
	DimPage    Dimension = "page"
	DimCountry Dimension = "country"
	DimDevice  Dimension = "device"
)

// Devices reported by the analytics API
const (
	DeviceDesktop = "DESKTOP"
	DeviceMobile  = "MOBILE"
	DeviceTablet  = "TABLET"
)

// Devices lists the known devices in routing order
var Devices = []string{DeviceDesktop, DeviceMobile, DeviceTablet}

// Metrics are the four numbers attached to every row and bucket
type Metrics struct {
	Clicks      float64
	Impressions float64
	CTR         float64
	Position    float64
}

// Row is one analytics row; Keys follow the requested dimension order
type Row struct {
	Keys []string
	Metrics
}

// Query is a single page request
type Query struct {
	SiteURL    string
	Start      time.Time
	End        time.Time
	Dimensions []Dimension
	Filters    []FilterGroup
	StartRow   int
	RowLimit   int
}

// Site is a property visible to the credentials
type Site struct {
	URL             string
	PermissionLevel string
}

// Record is what gets written to a destination table
type Record struct {
	Mode    Mode
	Key     string
	Date    time.Time
	Query   string
	Page    string
	Country string
	Device  string
	Metrics
}

// Params describe one run
type Params struct {
	SiteURL  string
	Window   Window
	Mode     Mode
	RowLimit int
	Filters  []FilterGroup
	DryRun   bool
}
