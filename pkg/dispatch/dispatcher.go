// Package dispatch executes the simulated behavior for incoming mock
// requests: resolve the endpoint's behavior, apply the configured
// delay, draw for a simulated error, and build the response body.
package dispatch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/getlagd/lagd/pkg/api"
	"github.com/getlagd/lagd/pkg/endpoint"
	"github.com/getlagd/lagd/pkg/logging"
	"github.com/getlagd/lagd/pkg/metrics"
	"github.com/getlagd/lagd/pkg/stats"
)

// ErrorMessage is the body message for a simulated error.
const ErrorMessage = "Simulated error"

// Request carries the parts of an incoming request the simulation echoes
// back. Headers and Params hold one value per key; repeated keys keep
// the first value.
type Request struct {
	Path    string
	Headers map[string]string
	Params  map[string]string
	Body    string
}

// Result is the simulated response. Headers holds the configured
// response headers the transport must set before writing Body.
type Result struct {
	StatusCode int
	Headers    map[string]string
	Body       any
}

// Dispatcher resolves behavior and produces simulated responses.
type Dispatcher struct {
	reg   *endpoint.Registry
	stats *stats.Collector
	srv   *metrics.ServerMetrics
	log   *slog.Logger
}

// New creates a dispatcher. srv may be nil when metrics are not wired.
func New(reg *endpoint.Registry, collector *stats.Collector, srv *metrics.ServerMetrics, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{reg: reg, stats: collector, srv: srv, log: log}
}

// Dispatch runs the full simulation for one request. The returned error
// is non-nil only when ctx is cancelled mid-delay; a simulated error is
// a normal Result with a 500 status, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	id := d.stats.NextRequestID()
	d.stats.RecordRequest()
	if d.srv != nil {
		d.srv.RequestsTotal.Inc()
	}

	b := d.reg.Resolve(req.Path)

	// The reported processing time is the drawn delay, not wall-clock
	// time, so a fixed-delay endpoint reports the same value every time.
	delayMs := delayFor(b)

	if err := sleepFor(ctx, time.Duration(delayMs)*time.Millisecond); err != nil {
		// Client gone; count the request as failed so totals still add up.
		d.stats.RecordFailure()
		if d.srv != nil {
			d.srv.RequestsFailed.Inc()
		}
		return Result{}, err
	}

	if rand.Float64() < b.ErrorRate {
		d.stats.RecordFailure()
		d.stats.RecordProcessingTime(delayMs)
		if d.srv != nil {
			d.srv.RequestsFailed.Inc()
		}
		d.log.Debug("simulated error", "path", req.Path, "request_id", id, "processing_ms", delayMs)
		return Result{
			StatusCode: http.StatusInternalServerError,
			Body: api.MockError{
				Status:           api.StatusError,
				Message:          ErrorMessage,
				RequestID:        id,
				ProcessingTimeMs: delayMs,
			},
		}, nil
	}

	d.stats.RecordSuccess()
	d.stats.RecordProcessingTime(delayMs)
	if d.srv != nil {
		d.srv.RequestsSuccessful.Inc()
	}
	d.log.Debug("simulated response", "path", req.Path, "request_id", id, "processing_ms", delayMs)

	return Result{
		StatusCode: http.StatusOK,
		Headers:    b.ResponseHeaders,
		Body: api.MockSuccess{
			Status:           api.StatusSuccess,
			Message:          b.ResponseMessage,
			RequestID:        id,
			ProcessingTimeMs: delayMs,
			Headers:          req.Headers,
			Params:           req.Params,
			RequestBody:      req.Body,
		},
	}, nil
}

// delayFor picks a uniform delay in milliseconds from
// [MinDelayMs, MaxDelayMs], both bounds inclusive.
func delayFor(b endpoint.Behavior) int64 {
	ms := b.MinDelayMs
	if span := b.MaxDelayMs - b.MinDelayMs; span > 0 {
		ms += rand.IntN(span + 1)
	}
	return int64(ms)
}

// sleepFor blocks for d or until ctx is done, whichever comes first.
func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
