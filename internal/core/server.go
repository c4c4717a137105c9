// Package core is the HTTP chassis shared by the weather page and its JSON
// API. It owns the chi router, the cross-cutting middleware chain and the
// response envelopes; domain handlers plug in through route registrars so
// that core never imports them.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"weatherlookup/internal/config"
)

// MetricsCollector records per-request telemetry.
type MetricsCollector interface {
	// RecordRequest records latency and count under the MetricAPILatency and
	// MetricAPIRequestCount names from the types package.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server encapsulates the dependencies of the HTTP surface so tests can
// inject their own.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// HealthProbes are evaluated by GET /health.
	HealthProbes []HealthProbe

	// RouteRegistrars mount the top-level page routes; V1RouteRegistrars mount
	// under /v1. Both are filled by main before MountRoutes.
	RouteRegistrars   []func(chi.Router)
	V1RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer validates its inputs and prepares an empty router. The caller
// mounts routes with MountRoutes once registrars are in place.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// HTTPServer builds the listener for addr with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Shutdown drains hs within the deadline carried by ctx.
func (s *Server) Shutdown(ctx context.Context, hs *http.Server) error {
	s.Logger.Info("server shutdown initiated")

	if err := hs.Shutdown(ctx); err != nil {
		s.Logger.Error("error draining HTTP connections", "error", err)
		return fmt.Errorf("draining HTTP connections: %w", err)
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
