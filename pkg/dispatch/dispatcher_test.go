package dispatch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/getlagd/lagd/pkg/api"
	"github.com/getlagd/lagd/pkg/endpoint"
	"github.com/getlagd/lagd/pkg/stats"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *endpoint.Registry, *stats.Collector) {
	t.Helper()
	reg, err := endpoint.NewRegistry(100, endpoint.Defaults{}, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	collector := stats.NewCollector(nil)
	return New(reg, collector, nil, nil), reg, collector
}

func TestDispatchSuccess(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)

	err := reg.Configure("api/ok", endpoint.Behavior{
		ResponseMessage: "hello",
		ResponseHeaders: map[string]string{"X-Mock": "yes"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := d.Dispatch(context.Background(), Request{
		Path:    "/api/ok",
		Headers: map[string]string{"Accept": "application/json"},
		Params:  map[string]string{"q": "1"},
		Body:    `{"n":1}`,
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
	if res.Headers["X-Mock"] != "yes" {
		t.Errorf("response headers = %v, want configured X-Mock", res.Headers)
	}

	body, ok := res.Body.(api.MockSuccess)
	if !ok {
		t.Fatalf("body type = %T, want api.MockSuccess", res.Body)
	}
	if body.Status != api.StatusSuccess {
		t.Errorf("body status = %q", body.Status)
	}
	if body.Message != "hello" {
		t.Errorf("body message = %q, want hello", body.Message)
	}
	if body.Headers["Accept"] != "application/json" {
		t.Errorf("echoed headers = %v", body.Headers)
	}
	if body.Params["q"] != "1" {
		t.Errorf("echoed params = %v", body.Params)
	}
	if body.RequestBody != `{"n":1}` {
		t.Errorf("echoed body = %q", body.RequestBody)
	}
	if body.RequestID < 1 {
		t.Errorf("request id = %d, want >= 1", body.RequestID)
	}
	if body.ProcessingTimeMs < 0 {
		t.Errorf("processing time = %d", body.ProcessingTimeMs)
	}
}

func TestDispatchSimulatedError(t *testing.T) {
	d, reg, collector := newTestDispatcher(t)

	if err := reg.Configure("api/flaky", endpoint.Behavior{ErrorRate: 1.0}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		res, err := d.Dispatch(context.Background(), Request{Path: "api/flaky"})
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}

		if res.StatusCode != http.StatusInternalServerError {
			t.Fatalf("request %d: status = %d, want errorRate 1 to always fail", i, res.StatusCode)
		}
		body, ok := res.Body.(api.MockError)
		if !ok {
			t.Fatalf("body type = %T, want api.MockError", res.Body)
		}
		if body.Status != api.StatusError {
			t.Errorf("body status = %q", body.Status)
		}
		if body.Message != ErrorMessage {
			t.Errorf("body message = %q, want %q", body.Message, ErrorMessage)
		}
	}

	snap := collector.Snapshot()
	if snap.FailedRequests != 100 || snap.TotalRequests != 100 {
		t.Errorf("counters = total %d failed %d, want 100/100", snap.TotalRequests, snap.FailedRequests)
	}
}

func TestDispatchErrorRateZeroNeverFails(t *testing.T) {
	d, reg, collector := newTestDispatcher(t)

	if err := reg.Configure("api/stable", endpoint.Behavior{ErrorRate: 0.0}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		res, err := d.Dispatch(context.Background(), Request{Path: "api/stable"})
		if err != nil {
			t.Fatal(err)
		}
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want errorRate 0 to never fail", i, res.StatusCode)
		}
	}

	snap := collector.Snapshot()
	if snap.FailedRequests != 0 || snap.SuccessfulRequests != 50 {
		t.Errorf("counters = success %d failed %d, want 50/0", snap.SuccessfulRequests, snap.FailedRequests)
	}
}

func TestDispatchRequestIDsIncrease(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	var last int64
	for i := 0; i < 5; i++ {
		res, err := d.Dispatch(context.Background(), Request{Path: "api/x"})
		if err != nil {
			t.Fatal(err)
		}
		body := res.Body.(api.MockSuccess)
		if body.RequestID <= last {
			t.Fatalf("request id %d not greater than previous %d", body.RequestID, last)
		}
		last = body.RequestID
	}
}

func TestDispatchAppliesDelay(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)

	if err := reg.Configure("api/slow", endpoint.Behavior{MinDelayMs: 30, MaxDelayMs: 30}); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	res, err := d.Dispatch(context.Background(), Request{Path: "api/slow"})
	if err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	if elapsed < 30*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 30ms", elapsed)
	}
	if body := res.Body.(api.MockSuccess); body.ProcessingTimeMs != 30 {
		t.Errorf("reported processing time = %dms, want exactly 30", body.ProcessingTimeMs)
	}
}

func TestDispatchReportsDrawnDelay(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)

	if err := reg.Configure("api/fixed", endpoint.Behavior{MinDelayMs: 50, MaxDelayMs: 50}); err != nil {
		t.Fatal(err)
	}

	// A fixed-delay endpoint reports the configured value every time,
	// regardless of scheduler jitter or time spent outside the sleep.
	for i := 0; i < 20; i++ {
		res, err := d.Dispatch(context.Background(), Request{Path: "api/fixed"})
		if err != nil {
			t.Fatal(err)
		}
		if body := res.Body.(api.MockSuccess); body.ProcessingTimeMs != 50 {
			t.Fatalf("request %d: processing time = %dms, want exactly 50", i, body.ProcessingTimeMs)
		}
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)

	if err := reg.Configure("api/stuck", endpoint.Behavior{MinDelayMs: 5000, MaxDelayMs: 5000}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := d.Dispatch(ctx, Request{Path: "api/stuck"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Dispatch error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, should not wait out the delay", elapsed)
	}
}

func TestDelayForBounds(t *testing.T) {
	b := endpoint.Behavior{MinDelayMs: 10, MaxDelayMs: 20}
	for i := 0; i < 200; i++ {
		d := delayFor(b)
		if d < 10 || d > 20 {
			t.Fatalf("delayFor = %dms, want within [10, 20]", d)
		}
	}

	if d := delayFor(endpoint.Behavior{MinDelayMs: 7, MaxDelayMs: 7}); d != 7 {
		t.Errorf("fixed delay = %dms, want 7", d)
	}
	if d := delayFor(endpoint.Behavior{}); d != 0 {
		t.Errorf("zero behavior delay = %dms, want 0", d)
	}
}
