package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// healthCheckTimeout bounds the whole probe run.
const healthCheckTimeout = 2 * time.Second

// HealthProbe checks one dependency the service cannot work without.
type HealthProbe interface {
	Name() string
	// Check returns nil when healthy. It must honour ctx.
	Check(ctx context.Context) error
}

// BreakerStater exposes a circuit breaker state; external.BaseClient
// satisfies it.
type BreakerStater interface {
	BreakerState() gobreaker.State
}

// BreakerProbe reports unhealthy while an upstream circuit breaker is open.
// It never calls the upstream itself, so /health costs no API quota.
type BreakerProbe struct {
	name    string
	breaker BreakerStater
}

// NewBreakerProbe names a probe over breaker.
func NewBreakerProbe(name string, breaker BreakerStater) *BreakerProbe {
	return &BreakerProbe{name: name, breaker: breaker}
}

func (p *BreakerProbe) Name() string { return p.name }

func (p *BreakerProbe) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state := p.breaker.BreakerState(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return nil
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every probe concurrently under healthCheckTimeout and
// answers 200 when all pass, 503 otherwise. A probe that panics or does not
// finish in time counts as unhealthy.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	type probeResult struct {
		name string
		err  error
	}
	results := make(chan probeResult, len(s.HealthProbes))

	for _, probe := range s.HealthProbes {
		go func(p HealthProbe) {
			var err error
			func() {
				defer func() {
					if rvr := recover(); rvr != nil {
						err = fmt.Errorf("probe panicked: %v", rvr)
					}
				}()
				err = p.Check(ctx)
			}()
			results <- probeResult{name: p.Name(), err: err}
		}(probe)
	}

	components := make(map[string]componentStatus, len(s.HealthProbes))
	for _, probe := range s.HealthProbes {
		components[probe.Name()] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
	}

	healthy := true
collect:
	for range s.HealthProbes {
		select {
		case res := <-results:
			if res.err != nil {
				components[res.name] = componentStatus{Status: "unhealthy", Message: res.err.Error()}
				continue
			}
			components[res.name] = componentStatus{Status: "healthy"}
		case <-ctx.Done():
			break collect
		}
	}
	for _, c := range components {
		if c.Status != "healthy" {
			healthy = false
		}
	}

	if healthy {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy", Components: components})
		return
	}
	JSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Components: components})
}
