// Package api defines the wire shapes shared by the mock-serving path
// and the admin API. The transport layer encodes these; the core owns
// their structure.
package api

import "github.com/getlagd/lagd/pkg/endpoint"

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MockSuccess is the body of a successful simulated response.
type MockSuccess struct {
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	RequestID        int64             `json:"requestId"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
	Headers          map[string]string `json:"headers"`
	Params           map[string]string `json:"params"`
	RequestBody      string            `json:"requestBody,omitempty"`
}

// MockError is the body of a simulated error response. A simulated error
// is a configured outcome, not a fault of the server.
type MockError struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	RequestID        int64  `json:"requestId"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// ErrorResponse is the admin API error body.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConfigureResponse confirms a created or replaced endpoint config.
type ConfigureResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Endpoint string            `json:"endpoint"`
	Config   endpoint.Behavior `json:"config"`
}

// EndpointResponse carries one endpoint's configured behavior.
type EndpointResponse struct {
	Status   string            `json:"status"`
	Endpoint string            `json:"endpoint"`
	Config   endpoint.Behavior `json:"config"`
}

// ListResponse carries all configured endpoints plus the count.
type ListResponse struct {
	Status    string                       `json:"status"`
	Endpoints map[string]endpoint.Behavior `json:"endpoints"`
	Count     int                          `json:"count"`
}

// MessageResponse is a bare success confirmation.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ClearResponse reports how many endpoint configs a clear removed.
type ClearResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// DefaultsResponse carries the current default behavior.
type DefaultsResponse struct {
	Status            string  `json:"status"`
	DefaultMinDelayMs int     `json:"defaultMinDelayMs"`
	DefaultMaxDelayMs int     `json:"defaultMaxDelayMs"`
	DefaultErrorRate  float64 `json:"defaultErrorRate"`
}

// UpdateDefaultsRequest is the partial-update body for defaults. Nil
// fields keep their current value; the merged result is validated as a
// unit.
type UpdateDefaultsRequest struct {
	MinDelayMs *int     `json:"minDelayMs,omitempty"`
	MaxDelayMs *int     `json:"maxDelayMs,omitempty"`
	ErrorRate  *float64 `json:"errorRate,omitempty"`
}

// LatencySummary reports processing-time percentiles in milliseconds.
type LatencySummary struct {
	P50 int64 `json:"p50"`
	P95 int64 `json:"p95"`
	P99 int64 `json:"p99"`
	Max int64 `json:"max"`
}

// StatsResponse carries the request counters and success rate.
type StatsResponse struct {
	Status             string         `json:"status"`
	TotalRequests      int64          `json:"totalRequests"`
	SuccessfulRequests int64          `json:"successfulRequests"`
	FailedRequests     int64          `json:"failedRequests"`
	SuccessRate        float64        `json:"successRate"`
	LatencyMs          LatencySummary `json:"latencyMs"`
}

// PersistenceStatusResponse reports whether persistence is enabled and
// where the snapshot lives.
type PersistenceStatusResponse struct {
	Status   string `json:"status"`
	Enabled  bool   `json:"enabled"`
	FilePath string `json:"filePath"`
}

// SaveResponse confirms a persistence save.
type SaveResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	FilePath      string `json:"filePath"`
	EndpointCount int    `json:"endpointCount"`
}

// LoadResponse confirms a persistence load, including entries skipped
// for failing validation.
type LoadResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
	Loaded   int    `json:"loaded"`
	Skipped  int    `json:"skipped"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status        string `json:"status"`
	Uptime        int    `json:"uptime"`
	InstanceID    string `json:"instanceId"`
	Endpoints     int    `json:"configuredEndpoints"`
	TotalRequests int64  `json:"totalRequests"`
}
