// Package openweather fetches current conditions and the 5-day/3-hour
// forecast for a city from the OpenWeatherMap REST API. Both calls are
// read-only GETs parameterized by city name, units and API key.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weatherlookup/internal/external"
	"weatherlookup/internal/types"
)

const (
	// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// unitsMetric is the only units mode the pipeline requests.
	unitsMetric = "metric"

	// maxBodySize caps how much of a response is read. A full 40-point
	// forecast is roughly 16 KB.
	maxBodySize = 1 << 20
)

// Metrics receives upstream failure counts. A nil Metrics is allowed.
type Metrics interface {
	RecordUpstreamFailure(ctx context.Context, endpoint types.UpstreamEndpoint, code types.ErrorCode)
}

// Config holds the parameters needed to construct a Client.
type Config struct {
	BaseURL   string
	APIKey    types.SecretString
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	Metrics   Metrics

	// HTTPClient overrides the transport; tests point it at httptest servers.
	HTTPClient *http.Client
}

// Client implements lookup.WeatherSource against OpenWeatherMap.
type Client struct {
	base    *external.BaseClient
	baseURL string
	apiKey  types.SecretString
	logger  *slog.Logger
	metrics Metrics
}

// NewClient builds a Client. BaseURL defaults to DefaultBaseURL.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:    external.NewBaseClient(httpClient, "openweathermap", external.DefaultBreakerSettings(), cfg.UserAgent),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Base exposes the underlying BaseClient, used by the health probe.
func (c *Client) Base() *external.BaseClient {
	return c.base
}

// CurrentWeather fetches current conditions for query.
func (c *Client) CurrentWeather(ctx context.Context, query types.LocationQuery) (*types.CurrentConditions, error) {
	var out currentResponse
	if err := c.get(ctx, types.EndpointCurrentWeather, query, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// Forecast fetches the raw 3-hourly forecast list for query, up to 40 points
// in upstream order.
func (c *Client) Forecast(ctx context.Context, query types.LocationQuery) ([]types.ForecastPoint, error) {
	var out forecastResponse
	if err := c.get(ctx, types.EndpointForecast, query, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// get issues one GET against endpoint and decodes a 2xx body into dst.
func (c *Client) get(ctx context.Context, endpoint types.UpstreamEndpoint, query types.LocationQuery, dst any) error {
	err := c.doGet(ctx, endpoint, query, dst)
	if err != nil && c.metrics != nil {
		c.metrics.RecordUpstreamFailure(ctx, endpoint, types.CodeOf(err))
	}
	return err
}

func (c *Client) doGet(ctx context.Context, endpoint types.UpstreamEndpoint, query types.LocationQuery, dst any) error {
	params := url.Values{}
	params.Set("q", query.String())
	params.Set("units", unitsMetric)
	params.Set("appid", c.apiKey.Unmask())
	reqURL := c.baseURL + "/" + string(endpoint) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build upstream request", err)
	}
	req.Header.Set("Accept", "application/json")

	logger := types.LoggerFromContext(ctx, c.logger)
	start := time.Now()
	resp, err := c.base.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "upstream request failed",
			"endpoint", string(endpoint),
			"query", query.String(),
			"error", err,
		)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to read upstream response", err)
	}

	logger.DebugContext(ctx, "upstream response",
		"endpoint", string(endpoint),
		"query", query.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(endpoint, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamMalformedResponse,
			"upstream returned a malformed body",
			err,
			map[string]any{"endpoint": string(endpoint)},
		)
	}
	return nil
}

// statusError classifies a non-2xx response. 404 is the only status with its
// own code; OpenWeatherMap uses it for "city not found".
func statusError(endpoint types.UpstreamEndpoint, status int, body []byte) *types.AppError {
	var upstream errorResponse
	_ = json.Unmarshal(body, &upstream)

	details := map[string]any{
		"endpoint": string(endpoint),
		"status":   status,
	}
	if upstream.Message != "" {
		details["upstream_message"] = upstream.Message
	}

	if status == http.StatusNotFound {
		return types.NewAppErrorWithDetails(types.ErrCodeNotFoundCity, "city not found", nil, details)
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamStatus,
		fmt.Sprintf("upstream returned %d", status),
		nil,
		details,
	)
}
