package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("test_total", "A test counter.")

	c.Inc()
	c.Inc()
	c.Add(3)
	c.Add(-10) // ignored

	if got := c.Value(); got != 5 {
		t.Errorf("Value() = %v, want 5", got)
	}
}

func TestGauge(t *testing.T) {
	r := NewRegistry()
	g := r.NewGauge("test_gauge", "A test gauge.")

	g.Set(10)
	g.Inc()
	g.Dec()
	g.Dec()

	if got := g.Value(); got != 9 {
		t.Errorf("Value() = %v, want 9", got)
	}
}

func TestGaugeFunc(t *testing.T) {
	r := NewRegistry()
	v := 1.5
	g := r.NewGaugeFunc("test_func", "A computed gauge.", func() float64 { return v })

	if got := g.Value(); got != 1.5 {
		t.Errorf("Value() = %v, want 1.5", got)
	}
	v = 2.5
	if got := g.Value(); got != 2.5 {
		t.Errorf("Value() = %v after update, want 2.5", got)
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("dup", "first")

	defer func() {
		if recover() == nil {
			t.Error("registering a duplicate metric name should panic")
		}
	}()
	r.NewCounter("dup", "second")
}

func TestHandlerExposition(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("app_requests_total", "Total requests.")
	c.Add(42)
	g := r.NewGauge("app_temperature", "Current temperature.")
	g.Set(21.5)
	r.NewGaugeFunc("app_ratio", "A ratio.", func() float64 { return 0.25 })

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}

	out := rec.Body.String()
	for _, want := range []string{
		"# HELP app_requests_total Total requests.",
		"# TYPE app_requests_total counter",
		"app_requests_total 42",
		"# TYPE app_temperature gauge",
		"app_temperature 21.5",
		"app_ratio 0.25",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q\n%s", want, out)
		}
	}

	// Output is sorted by metric name.
	if strings.Index(out, "app_ratio") > strings.Index(out, "app_temperature") {
		t.Error("metrics should be emitted in name order")
	}
}

func TestCounterConcurrent(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("concurrent_total", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	if got := c.Value(); got != 8000 {
		t.Errorf("Value() = %v, want 8000", got)
	}
}
