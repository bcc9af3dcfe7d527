package domain

import (
	"strings"

	perr "gscsync/internal/platform/errors"

	"golang.org/x/text/language"
)

// Filter is an equality predicate on one dimension
type Filter struct {
	Dimension  Dimension
	Operator   string
	Expression string
}

// FilterGroup ANDs its filters; groups are ORed
type FilterGroup struct {
	Filters []Filter
}

// BuildFilters returns one AND group for the optional country and device, nil when both are empty
func BuildFilters(country, device string) ([]FilterGroup, error) {
	var fs []Filter
	if strings.TrimSpace(country) != "" {
		c, err := NormalizeCountry(country)
		if err != nil {
			return nil, err
		}
		fs = append(fs, Filter{Dimension: DimCountry, Operator: "equals", Expression: c})
	}
	if strings.TrimSpace(device) != "" {
		d, err := NormalizeDevice(device)
		if err != nil {
			return nil, err
		}
		fs = append(fs, Filter{Dimension: DimDevice, Operator: "equals", Expression: d})
	}
	if len(fs) == 0 {
		return nil, nil
	}
	return []FilterGroup{{Filters: fs}}, nil
}

// NormalizeCountry accepts an ISO 3166 alpha-2 or alpha-3 code and returns lowercase alpha-3
func NormalizeCountry(s string) (string, error) {
	r, err := language.ParseRegion(strings.TrimSpace(s))
	if err != nil || !r.IsCountry() || r.ISO3() == "" {
		return "", perr.Configf("country", "unknown country code %q", s)
	}
	return strings.ToLower(r.ISO3()), nil
}

// NormalizeDevice upper-cases s and checks it is a known device
func NormalizeDevice(s string) (string, error) {
	d := strings.ToUpper(strings.TrimSpace(s))
	for _, known := range Devices {
		if d == known {
			return d, nil
		}
	}
	return "", perr.Configf("device", "device must be one of %s, got %q", strings.Join(Devices, ", "), s)
}
