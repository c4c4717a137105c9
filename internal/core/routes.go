package core

import (
	"fmt"

	"github.com/go-chi/chi/v5"
)

// defaultRedactedHeaders are masked in request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes installs the middleware chain, the registered page and /v1
// routes, and GET /health. It fails only if the compression wrapper cannot be
// built.
func (s *Server) MountRoutes() error {
	if err := s.registerGlobalMiddleware(); err != nil {
		return err
	}

	for _, registrar := range s.RouteRegistrars {
		registrar(s.router)
	}
	s.router.Route("/v1", func(r chi.Router) {
		for _, registrar := range s.V1RouteRegistrars {
			registrar(r)
		}
	})
	s.router.Get("/health", s.HandleHealth)
	return nil
}

// registerGlobalMiddleware applies, outermost first:
//
//  1. Recoverer        catches panics from everything below
//  2. RequestID        correlation ID and request-scoped logger
//  3. SecurityHeaders  set before any handler can write
//  4. RequestLogger    sees the final status
//  5. Metrics          latency and count per route pattern
//  6. Compression      gzip for clients that accept it
func (s *Server) registerGlobalMiddleware() error {
	compress, err := CompressionMiddleware()
	if err != nil {
		return fmt.Errorf("mounting routes: %w", err)
	}

	s.router.Use(s.Recoverer)
	s.router.Use(s.RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(s.MetricsMiddleware)
	s.router.Use(compress)
	return nil
}
