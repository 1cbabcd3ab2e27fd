// HTTP handlers for the admin API.

package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getlagd/lagd/pkg/api"
	"github.com/getlagd/lagd/pkg/endpoint"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Status:  api.StatusError,
		Message: message,
	})
}

// handleConfigure handles POST /admin/config/{path...}.
func (a *API) handleConfigure(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	var b endpoint.Behavior
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := a.reg.Configure(path, b); err != nil {
		if errors.Is(err, endpoint.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	key := endpoint.Normalize(path)
	a.log.Info("endpoint configured", "endpoint", key,
		"min_delay_ms", b.MinDelayMs, "max_delay_ms", b.MaxDelayMs, "error_rate", b.ErrorRate)

	writeJSON(w, http.StatusOK, api.ConfigureResponse{
		Status:   api.StatusSuccess,
		Message:  fmt.Sprintf("Configuration saved for endpoint: %s", key),
		Endpoint: key,
		Config:   b,
	})
}

// handleGetConfig handles GET /admin/config/{path...}.
func (a *API) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	b, ok := a.reg.Get(path)
	if !ok {
		writeError(w, http.StatusNotFound, "No configuration found for endpoint: "+endpoint.Normalize(path))
		return
	}

	writeJSON(w, http.StatusOK, api.EndpointResponse{
		Status:   api.StatusSuccess,
		Endpoint: endpoint.Normalize(path),
		Config:   b,
	})
}

// handleDeleteConfig handles DELETE /admin/config/{path...}.
func (a *API) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	key := endpoint.Normalize(path)

	if !a.reg.Delete(path) {
		writeError(w, http.StatusNotFound, "No configuration found for endpoint: "+key)
		return
	}

	a.log.Info("endpoint configuration deleted", "endpoint", key)
	writeJSON(w, http.StatusOK, api.MessageResponse{
		Status:  api.StatusSuccess,
		Message: "Configuration deleted for endpoint: " + key,
	})
}

// handleListConfigs handles GET /admin/config.
func (a *API) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	endpoints := a.reg.List()
	writeJSON(w, http.StatusOK, api.ListResponse{
		Status:    api.StatusSuccess,
		Endpoints: endpoints,
		Count:     len(endpoints),
	})
}

// handleClearConfigs handles DELETE /admin/config.
func (a *API) handleClearConfigs(w http.ResponseWriter, r *http.Request) {
	n := a.reg.Clear()
	a.log.Info("all endpoint configurations cleared", "deleted", n)
	writeJSON(w, http.StatusOK, api.ClearResponse{
		Status:       api.StatusSuccess,
		Message:      "All endpoint configurations cleared",
		DeletedCount: n,
	})
}

// handleGetDefaults handles GET /admin/defaults.
func (a *API) handleGetDefaults(w http.ResponseWriter, r *http.Request) {
	d := a.reg.GetDefaults()
	writeJSON(w, http.StatusOK, api.DefaultsResponse{
		Status:            api.StatusSuccess,
		DefaultMinDelayMs: d.MinDelayMs,
		DefaultMaxDelayMs: d.MaxDelayMs,
		DefaultErrorRate:  d.ErrorRate,
	})
}

// handleUpdateDefaults handles POST /admin/defaults. Absent fields keep
// their current value; the merged defaults are validated as a unit.
func (a *API) handleUpdateDefaults(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateDefaultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, err := a.reg.SetDefaults(req.MinDelayMs, req.MaxDelayMs, req.ErrorRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.log.Info("default behavior updated",
		"min_delay_ms", d.MinDelayMs, "max_delay_ms", d.MaxDelayMs, "error_rate", d.ErrorRate)

	writeJSON(w, http.StatusOK, api.DefaultsResponse{
		Status:            api.StatusSuccess,
		DefaultMinDelayMs: d.MinDelayMs,
		DefaultMaxDelayMs: d.MaxDelayMs,
		DefaultErrorRate:  d.ErrorRate,
	})
}

// handleGetStats handles GET /admin/stats.
func (a *API) handleGetStats(w http.ResponseWriter, r *http.Request) {
	s := a.stats.Snapshot()
	writeJSON(w, http.StatusOK, api.StatsResponse{
		Status:             api.StatusSuccess,
		TotalRequests:      s.TotalRequests,
		SuccessfulRequests: s.SuccessfulRequests,
		FailedRequests:     s.FailedRequests,
		SuccessRate:        s.SuccessRate,
		LatencyMs: api.LatencySummary{
			P50: s.LatencyP50,
			P95: s.LatencyP95,
			P99: s.LatencyP99,
			Max: s.LatencyMax,
		},
	})
}

// handleResetStats handles POST /admin/stats/reset. The request ID
// sequence is not rolled back, only the counters.
func (a *API) handleResetStats(w http.ResponseWriter, r *http.Request) {
	a.stats.Reset()
	a.log.Info("statistics reset")
	writeJSON(w, http.StatusOK, api.MessageResponse{
		Status:  api.StatusSuccess,
		Message: "Statistics reset",
	})
}

// handleSave handles POST /admin/persistence/save.
func (a *API) handleSave(w http.ResponseWriter, r *http.Request) {
	if !a.gateway.Enabled() {
		writeError(w, http.StatusBadRequest, "persistence is disabled")
		return
	}

	n, ok := a.gateway.Save()
	if !ok {
		writeError(w, http.StatusInternalServerError, "failed to save endpoint snapshot")
		return
	}

	writeJSON(w, http.StatusOK, api.SaveResponse{
		Status:        api.StatusSuccess,
		Message:       fmt.Sprintf("Saved %d endpoint configurations", n),
		FilePath:      a.gateway.Path(),
		EndpointCount: n,
	})
}

// handleLoad handles POST /admin/persistence/load.
func (a *API) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !a.gateway.Enabled() {
		writeError(w, http.StatusBadRequest, "persistence is disabled")
		return
	}

	res := a.gateway.Load()
	writeJSON(w, http.StatusOK, api.LoadResponse{
		Status:   api.StatusSuccess,
		Message:  fmt.Sprintf("Loaded %d endpoint configurations (%d skipped)", res.Loaded, res.Skipped),
		FilePath: a.gateway.Path(),
		Loaded:   res.Loaded,
		Skipped:  res.Skipped,
	})
}

// handlePersistenceStatus handles GET /admin/persistence/status.
func (a *API) handlePersistenceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.PersistenceStatusResponse{
		Status:   api.StatusSuccess,
		Enabled:  a.gateway.Enabled(),
		FilePath: a.gateway.Path(),
	})
}
