// Package external is the boundary between the lookup pipeline and the
// third-party HTTP APIs it calls. Every outbound request goes through
// BaseClient, which injects the User-Agent and trace headers, wraps the call
// in a circuit breaker and maps transport failures onto types.AppError.
//
// BaseClient never retries: a failed fetch aborts the cycle and the user
// decides whether to search again.
package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"weatherlookup/internal/types"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker guarding one upstream.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once exceeded.
	ConsecutiveFailures uint32
	// Interval is the cyclic period in the closed state after which counts reset.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns the defaults used for the weather upstream.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		Interval:            60 * time.Second,
		OpenTimeout:         30 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. Provider clients
// (openweather.Client) hold one and route every request through Do.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient with a breaker named breakerName.
func NewBaseClient(httpClient *http.Client, breakerName string, settings BreakerSettings, userAgent string) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > settings.ConsecutiveFailures
		},
		IsSuccessful: breakerSuccessful,
	})
	return NewBaseClientWithBreaker(httpClient, cb, userAgent)
}

// breakerSuccessful does not count caller cancellation against the upstream.
// A superseded lookup cycle cancels its in-flight requests.
func breakerSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// NewBaseClientWithBreaker creates a BaseClient with a caller-provided
// circuit breaker, for tests that need control over tripping.
func NewBaseClientWithBreaker(httpClient *http.Client, breaker *gobreaker.CircuitBreaker[*http.Response], userAgent string) *BaseClient {
	return &BaseClient{
		client:    httpClient,
		breaker:   breaker,
		userAgent: userAgent,
	}
}

// BreakerState returns the current circuit breaker state.
func (c *BaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do executes the request once.
//
// 5xx responses count as failures for the breaker but are still returned to
// the caller with a nil error, so provider clients see every HTTP status and
// classify it themselves. A nil response always comes with a *types.AppError.
// The caller closes the response body.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-Request-Id", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, stripURL(doErr)
		}
		if r.StatusCode >= 500 {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})

	if resp != nil {
		// A 5xx: the breaker has counted it, the caller still gets the status.
		return resp, nil
	}
	return nil, c.mapError(err)
}

// stripURL drops the request URL from a transport error. Provider clients
// put credentials in the query string.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// mapError translates transport-level failures into AppErrors.
func (c *BaseClient) mapError(err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamCircuitOpen,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}
	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err,
	)
}
