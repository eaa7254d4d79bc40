// Package http provides the inbound HTTP transport for Admission Gate.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Admission-Gate/Admissiongate/internal/domain/identity"
	"github.com/Admission-Gate/Admissiongate/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultMaxBodyBytes caps request bodies at 10 MiB unless configured.
const defaultMaxBodyBytes = 10 * 1024 * 1024

// Transport is the inbound adapter that runs the admission chain in
// front of an application handler. The gate itself serves /healthz and
// /metrics outside the chain; everything else is the application's.
type Transport struct {
	admission       *service.AdmissionService
	guard           *service.EgressGuardService
	resolver        *identity.Resolver
	server          *http.Server
	addr            string
	logger          *slog.Logger
	app             http.Handler   // Application handler the chain protects
	adminHandler    http.Handler   // Optional admin API handler
	healthChecker   *HealthChecker // Health check handler
	metrics         *Metrics       // Prometheus metrics
	maxBodyBytes    int64
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring Transport.
type Option func(*Transport)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:8080" (localhost only).
func WithAddr(addr string) Option {
	return func(t *Transport) {
		t.addr = addr
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithAppHandler sets the application handler the chain protects.
// Default responds 404 to everything that clears the chain.
func WithAppHandler(h http.Handler) Option {
	return func(t *Transport) {
		if h != nil {
			t.app = h
		}
	}
}

// WithAdminHandler mounts the admin API under /admin/api/v1.
// The admin handler carries its own auth and rate limiting; it does not
// run the admission chain.
func WithAdminHandler(h http.Handler) Option {
	return func(t *Transport) {
		t.adminHandler = h
	}
}

// WithHealthChecker sets the health checker for the /healthz endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *Transport) {
		t.healthChecker = hc
	}
}

// WithMaxBodyBytes sets the request body cap. Default is 10 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(t *Transport) {
		if n > 0 {
			t.maxBodyBytes = n
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown. Default is 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.shutdownTimeout = d
		}
	}
}

// NewTransport creates a transport running the admission chain built
// from the given services in front of the configured application.
func NewTransport(
	admissionService *service.AdmissionService,
	guardService *service.EgressGuardService,
	resolver *identity.Resolver,
	opts ...Option,
) *Transport {
	t := &Transport{
		admission:       admissionService,
		guard:           guardService,
		resolver:        resolver,
		addr:            "127.0.0.1:8080",
		logger:          slog.Default(),
		app:             NotFoundHandler(),
		maxBodyBytes:    defaultMaxBodyBytes,
		shutdownTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Routes builds the full router and registers the gate's metrics on reg.
// Exposed separately from Start so tests can drive the router through
// httptest without binding a listener.
func (t *Transport) Routes(reg *prometheus.Registry) http.Handler {
	t.metrics = NewMetrics(reg)

	r := chi.NewRouter()

	// Gate endpoints live outside the chain: health must answer even
	// when budgets are exhausted, and scraping must never be counted.
	if t.healthChecker != nil {
		r.Handle("/healthz", t.healthChecker.Handler())
	} else {
		// Fallback to simple handler if no checker configured
		r.Handle("/healthz", healthHandler())
	}
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	}))

	// Admin API (own auth + rate limiting, see the admin package)
	if t.adminHandler != nil {
		r.Mount("/admin/api/v1", t.adminHandler)
	}

	// The protected application. Middleware order (outermost first):
	//  1. Metrics - record duration and status (MUST be outermost to capture full duration)
	//  2. RequestID - extract/generate request ID and enrich logger
	//  3. SecurityHeaders - set before delegating so rejections carry them
	//  4. Recoverer - panics below become generic 500s
	//  5. ClientIdentity - resolve the address every dimension keys on
	//  6. MaxBody - 413 oversized requests
	//  7. Guard - 400 unsafe outbound URLs
	//  8. Admission - 429 exhausted budgets
	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware(t.metrics))
		r.Use(RequestIDMiddleware(t.logger))
		r.Use(SecurityHeadersMiddleware)
		r.Use(RecovererMiddleware)
		r.Use(ClientIdentityMiddleware(t.resolver))
		r.Use(MaxBodyMiddleware(t.maxBodyBytes))
		r.Use(GuardMiddleware(t.guard, t.metrics))
		r.Use(AdmissionMiddleware(t.admission, t.metrics))
		r.Handle("/*", t.app)
	})

	return r
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *Transport) Start(ctx context.Context) error {
	// Create Prometheus registry with process collectors
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	t.server = &http.Server{
		Addr:    t.addr,
		Handler: t.Routes(reg),
	}

	// Channel for server errors
	errCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		t.logger.Info("starting HTTP server", "addr", t.addr)
		err := t.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *Transport) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
	defer cancel()

	if err := t.server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}

	t.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *Transport) Close() error {
	if t.server == nil {
		return nil
	}
	return t.shutdown()
}

// healthHandler is the minimal health response used when no
// HealthChecker is configured.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}
