// Package admin provides the REST API for managing endpoint behaviors,
// defaults, statistics, and persistence.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/getlagd/lagd/pkg/endpoint"
	"github.com/getlagd/lagd/pkg/logging"
	"github.com/getlagd/lagd/pkg/persist"
	"github.com/getlagd/lagd/pkg/stats"
)

// API exposes the admin operations over HTTP. It owns no state of its
// own; every handler delegates to the registry, the stats collector,
// or the persistence gateway.
type API struct {
	reg     *endpoint.Registry
	stats   *stats.Collector
	gateway *persist.Gateway
	log     *slog.Logger
}

// New creates the admin API over the given components.
func New(reg *endpoint.Registry, collector *stats.Collector, gateway *persist.Gateway, log *slog.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}
	return &API{reg: reg, stats: collector, gateway: gateway, log: log}
}

// RegisterRoutes mounts all admin routes on mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	// Endpoint configuration
	mux.HandleFunc("POST /admin/config/{path...}", a.handleConfigure)
	mux.HandleFunc("GET /admin/config/{path...}", a.handleGetConfig)
	mux.HandleFunc("DELETE /admin/config/{path...}", a.handleDeleteConfig)
	mux.HandleFunc("GET /admin/config", a.handleListConfigs)
	mux.HandleFunc("DELETE /admin/config", a.handleClearConfigs)

	// Default behavior
	mux.HandleFunc("GET /admin/defaults", a.handleGetDefaults)
	mux.HandleFunc("POST /admin/defaults", a.handleUpdateDefaults)

	// Statistics
	mux.HandleFunc("GET /admin/stats", a.handleGetStats)
	mux.HandleFunc("POST /admin/stats/reset", a.handleResetStats)

	// Persistence
	mux.HandleFunc("POST /admin/persistence/save", a.handleSave)
	mux.HandleFunc("POST /admin/persistence/load", a.handleLoad)
	mux.HandleFunc("GET /admin/persistence/status", a.handlePersistenceStatus)
}
