package metrics

// ServerMetrics bundles the counters the request path updates.
// Gauges computed from live state (success rate, configured endpoint
// count, latency quantiles) are registered separately by the engine
// with NewGaugeFunc.
type ServerMetrics struct {
	// RequestsTotal counts every mock request received.
	RequestsTotal *Counter

	// RequestsSuccessful counts requests that returned a mock success.
	RequestsSuccessful *Counter

	// RequestsFailed counts requests that drew a simulated error.
	RequestsFailed *Counter
}

// NewServerMetrics registers the request counters on the given registry.
func NewServerMetrics(r *Registry) *ServerMetrics {
	return &ServerMetrics{
		RequestsTotal:      r.NewCounter("lagd_requests_total", "Total number of mock requests received."),
		RequestsSuccessful: r.NewCounter("lagd_requests_successful_total", "Number of mock requests that completed successfully."),
		RequestsFailed:     r.NewCounter("lagd_requests_failed_total", "Number of mock requests that returned a simulated error."),
	}
}
