// Package modkit provides module wiring and core deps
package modkit

import (
	"net/http"

	"gscsync/internal/platform/config"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"
	"gscsync/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      store.TxRunner
	CH      store.Clickhouse
	Metrics *metrics.Sync

	// HTTP is the base client for outbound APIs; nil means http.DefaultClient
	HTTP *http.Client
}

// Client returns the configured HTTP client or the default one
func (d Deps) Client() *http.Client {
	if d.HTTP != nil {
		return d.HTTP
	}
	return http.DefaultClient
}
