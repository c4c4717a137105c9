package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"weatherlookup/internal/openweather"
	"weatherlookup/internal/types"
)

// ValidationResult is the outcome of one check, with a message fit for the
// operator's terminal.
type ValidationResult struct {
	Valid   bool
	Message string
}

// validateTimeout bounds each live probe.
const validateTimeout = 15 * time.Second

// probeCity is queried to prove a key works. Any well-known city will do.
const probeCity types.LocationQuery = "London"

// maxCityLength mirrors the lookup pipeline's query limit.
const maxCityLength = 200

// apiKeyPattern matches OpenWeatherMap keys: 32 lowercase hex characters.
var apiKeyPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// WeatherProber is the slice of the upstream client a live key check needs.
type WeatherProber interface {
	CurrentWeather(ctx context.Context, query types.LocationQuery) (*types.CurrentConditions, error)
}

// Validator checks operator input before it is written to SSM.
type Validator struct {
	newProber func(key types.SecretString) WeatherProber
}

// NewValidator probes keys against the OpenWeatherMap API at baseURL.
func NewValidator(baseURL string) *Validator {
	return NewValidatorWithProber(func(key types.SecretString) WeatherProber {
		return openweather.NewClient(openweather.Config{
			BaseURL:    baseURL,
			APIKey:     key,
			UserAgent:  "WeatherLookup-Bootstrap/1.0",
			HTTPClient: &http.Client{Timeout: 10 * time.Second},
		})
	})
}

// NewValidatorWithProber injects the prober factory.
func NewValidatorWithProber(newProber func(key types.SecretString) WeatherProber) *Validator {
	return &Validator{newProber: newProber}
}

// ValidateAPIKey checks the key format, then asks the API for current
// conditions in probeCity. A 401 means the key is wrong or not yet active;
// new keys can take a couple of hours to activate.
func (v *Validator) ValidateAPIKey(ctx context.Context, key string) ValidationResult {
	if !apiKeyPattern.MatchString(key) {
		return ValidationResult{Message: fmt.Sprintf("API key must be 32 lowercase hex characters (got %d characters)", len(key))}
	}

	probeCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	_, err := v.newProber(types.SecretString(key)).CurrentWeather(probeCtx, probeCity)
	if err == nil {
		return ValidationResult{Valid: true, Message: "OpenWeatherMap accepted the key"}
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamStatus {
		if status, _ := appErr.Details["status"].(int); status == http.StatusUnauthorized {
			return ValidationResult{Message: "OpenWeatherMap rejected the key (401); new keys can take up to two hours to activate"}
		}
	}
	return ValidationResult{Message: "could not verify the key: " + err.Error()}
}

// ValidateCity accepts what the lookup pipeline would accept as a query.
func (v *Validator) ValidateCity(_ context.Context, city string) ValidationResult {
	city = strings.TrimSpace(city)
	switch {
	case city == "":
		return ValidationResult{Message: "city must not be blank"}
	case utf8.RuneCountInString(city) > maxCityLength:
		return ValidationResult{Message: fmt.Sprintf("city must be at most %d characters", maxCityLength)}
	}
	return ValidationResult{Valid: true, Message: "default city " + city}
}
