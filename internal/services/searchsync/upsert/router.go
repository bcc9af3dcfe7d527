package upsert

import (
	"fmt"
	"slices"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/services/searchsync/domain"
)

// Router maps a device to its destination table, falling back to Default.
// It is resolved once per record and never changes during a run.
type Router struct {
	Default  string
	ByDevice map[string]string
}

// NewRouter requires a default table unless every device has its own
func NewRouter(def string, byDevice map[string]string) (Router, error) {
	r := Router{Default: def, ByDevice: map[string]string{}}
	for d, t := range byDevice {
		if t != "" {
			r.ByDevice[d] = t
		}
	}
	if def == "" && !r.Complete() {
		return Router{}, perr.Configf("NOTION_DATABASE_ID",
			"a default destination is required unless all of %v have their own", domain.Devices)
	}
	return r, nil
}

// Complete reports whether every known device has a dedicated table
func (r Router) Complete() bool {
	for _, d := range domain.Devices {
		if r.ByDevice[d] == "" {
			return false
		}
	}
	return true
}

// DefaultOnly drops device routes, keeping the default table
func (r Router) DefaultOnly() Router {
	if r.Default == "" {
		return r
	}
	return Router{Default: r.Default}
}

// Resolve returns the table for device
func (r Router) Resolve(device string) (string, error) {
	if t := r.ByDevice[device]; t != "" {
		return t, nil
	}
	if r.Default != "" {
		return r.Default, nil
	}
	return "", fmt.Errorf("%w for device %q", domain.ErrNoDestination, device)
}

// Tables lists the distinct tables the router can resolve to
func (r Router) Tables() []string {
	var out []string
	if r.Default != "" {
		out = append(out, r.Default)
	}
	for _, t := range r.ByDevice {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
