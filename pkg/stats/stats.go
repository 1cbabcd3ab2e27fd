// Package stats tracks request counters and processing-time latency for
// the mock server, plus the monotonically increasing per-process request
// identifier stamped into every response.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/getlagd/lagd/pkg/logging"
)

// Histogram bounds for processing times, in milliseconds. One hour is
// far beyond any configurable delay; values above it are clamped.
const (
	histMinMs   = 1
	histMaxMs   = 3_600_000
	histSigFigs = 3
)

// Collector holds the request counters. The three request counters are
// independent atomic increments; they reset together. The request ID
// sequence never resets within a process lifetime.
type Collector struct {
	total   atomic.Int64
	success atomic.Int64
	failure atomic.Int64
	seq     atomic.Int64

	histMu sync.Mutex
	hist   *hdrhistogram.Histogram

	log *slog.Logger
}

// Snapshot is a point-in-time view of the counters for reporting. Reads
// across counters are not mutually atomic; a snapshot may observe total
// slightly ahead of success+failure.
type Snapshot struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	SuccessRate        float64

	// Processing-time percentiles in milliseconds.
	LatencyP50 int64
	LatencyP95 int64
	LatencyP99 int64
	LatencyMax int64
}

// NewCollector creates a collector with zeroed counters.
func NewCollector(log *slog.Logger) *Collector {
	if log == nil {
		log = logging.Nop()
	}
	return &Collector{
		hist: hdrhistogram.New(histMinMs, histMaxMs, histSigFigs),
		log:  log,
	}
}

// NextRequestID returns the next request identifier, strictly increasing
// from 1 for the process lifetime. Reset does not roll it back.
func (c *Collector) NextRequestID() int64 {
	return c.seq.Add(1)
}

// RecordRequest counts a received request.
func (c *Collector) RecordRequest() {
	c.total.Add(1)
}

// RecordSuccess counts a successful outcome.
func (c *Collector) RecordSuccess() {
	c.success.Add(1)
}

// RecordFailure counts a simulated-error outcome.
func (c *Collector) RecordFailure() {
	c.failure.Add(1)
}

// RecordProcessingTime records a request's processing time in
// milliseconds into the latency histogram.
func (c *Collector) RecordProcessingTime(ms int64) {
	if ms < histMinMs {
		ms = histMinMs
	} else if ms > histMaxMs {
		ms = histMaxMs
	}

	c.histMu.Lock()
	_ = c.hist.RecordValue(ms)
	c.histMu.Unlock()
}

// SuccessRate returns successful/total, or 0.0 when no requests have
// been recorded.
func (c *Collector) SuccessRate() float64 {
	total := c.total.Load()
	if total == 0 {
		return 0.0
	}
	return float64(c.success.Load()) / float64(total)
}

// Snapshot returns the current counter values and latency percentiles.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		TotalRequests:      c.total.Load(),
		SuccessfulRequests: c.success.Load(),
		FailedRequests:     c.failure.Load(),
		SuccessRate:        c.SuccessRate(),
	}

	c.histMu.Lock()
	if c.hist.TotalCount() > 0 {
		s.LatencyP50 = c.hist.ValueAtQuantile(50)
		s.LatencyP95 = c.hist.ValueAtQuantile(95)
		s.LatencyP99 = c.hist.ValueAtQuantile(99)
		s.LatencyMax = c.hist.Max()
	}
	c.histMu.Unlock()

	return s
}

// Reset zeroes the three request counters and the latency histogram.
// The request ID sequence is left untouched so identifiers issued after
// a reset continue strictly after the last issued value.
func (c *Collector) Reset() {
	c.total.Store(0)
	c.success.Store(0)
	c.failure.Store(0)

	c.histMu.Lock()
	c.hist.Reset()
	c.histMu.Unlock()
}

// LogLoop periodically logs a one-line counter summary until the context
// is canceled. Intended to run in its own goroutine.
func (c *Collector) LogLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := c.Snapshot()
			c.log.Info("request stats",
				"total", s.TotalRequests,
				"success", s.SuccessfulRequests,
				"failed", s.FailedRequests,
				"successRate", fmt.Sprintf("%.2f%%", s.SuccessRate*100))
		}
	}
}
