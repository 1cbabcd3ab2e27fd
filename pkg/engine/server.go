// Package engine wires the registry, dispatcher, statistics, and
// persistence together behind one HTTP listener. Admin routes and the
// mock catch-all share the same port.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getlagd/lagd/pkg/admin"
	"github.com/getlagd/lagd/pkg/api"
	"github.com/getlagd/lagd/pkg/config"
	"github.com/getlagd/lagd/pkg/dispatch"
	"github.com/getlagd/lagd/pkg/endpoint"
	"github.com/getlagd/lagd/pkg/logging"
	"github.com/getlagd/lagd/pkg/metrics"
	"github.com/getlagd/lagd/pkg/persist"
	"github.com/getlagd/lagd/pkg/stats"
)

// Server is the mock server engine.
type Server struct {
	cfg        *config.Config
	reg        *endpoint.Registry
	stats      *stats.Collector
	gateway    *persist.Gateway
	dispatcher *dispatch.Dispatcher
	metricsReg *metrics.Registry

	httpServer *http.Server
	instanceID string
	log        *slog.Logger

	mu        sync.Mutex
	running   bool
	startTime time.Time
	cancel    context.CancelFunc
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates the engine over its components. The registry,
// collector, and gateway are shared with the admin API; the dispatcher
// and metric registry are owned here.
func NewServer(cfg *config.Config, reg *endpoint.Registry, collector *stats.Collector, gateway *persist.Gateway, opts ...ServerOption) *Server {
	s := &Server{
		cfg:        cfg,
		reg:        reg,
		stats:      collector,
		gateway:    gateway,
		instanceID: uuid.NewString(),
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.metricsReg = metrics.NewRegistry()
	srvMetrics := metrics.NewServerMetrics(s.metricsReg)
	s.metricsReg.NewGaugeFunc("lagd_success_rate",
		"Fraction of mock requests that completed successfully.",
		collector.SuccessRate)
	s.metricsReg.NewGaugeFunc("lagd_endpoints_configured",
		"Number of endpoint behaviors currently configured.",
		func() float64 { return float64(reg.Count()) })

	s.dispatcher = dispatch.New(reg, collector, srvMetrics, s.log)
	return s
}

// InstanceID returns the per-process engine identifier.
func (s *Server) InstanceID() string { return s.instanceID }

// Uptime returns seconds since start, 0 when not running.
func (s *Server) Uptime() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}

// IsRunning reports whether the server has been started and not stopped.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Handler builds the full HTTP handler: admin routes, health, metrics,
// and the mock catch-all.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	adminAPI := admin.New(s.reg, s.stats, s.gateway, s.log)
	adminAPI.RegisterRoutes(mux)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metricsReg.Handler())

	// Everything else is a mock request.
	mux.HandleFunc("/", s.handleMock)

	return mux
}

// Start restores the persisted snapshot, begins serving, and launches
// the periodic statistics log.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	s.gateway.Load()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.cfg.Stats.LogInterval > 0 {
		go s.stats.LogLoop(ctx, s.cfg.Stats.LogInterval.Std())
	}

	s.log.Info("starting server", "addr", addr, "instance_id", s.instanceID)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop drains in-flight requests, saves the snapshot when persistence
// is enabled, and stops the statistics log.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if s.gateway.Enabled() {
		s.gateway.Save()
	}

	s.running = false
	s.log.Info("server stopped", "instance_id", s.instanceID)

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.stats.Snapshot()
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:        "ok",
		Uptime:        s.Uptime(),
		InstanceID:    s.instanceID,
		Endpoints:     s.reg.Count(),
		TotalRequests: snap.TotalRequests,
	})
}
