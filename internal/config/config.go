// Package config defines the configuration of the weather lookup binaries.
// Configuration is loaded once at startup and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails startup.
package config

import (
	"fmt"
	"time"

	"weatherlookup/internal/types"
)

// SecretString is an alias for types.SecretString so that config consumers
// need not import types for the API key.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Upstream      UpstreamConfig
	Lookup        LookupConfig
	Display       DisplayConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// UpstreamConfig holds the OpenWeatherMap credentials and endpoints.
type UpstreamConfig struct {
	// Resolved from SSM (OPENWEATHER_API_KEY_SSM_PARAM) or Env.
	APIKey SecretString `envconfig:"OPENWEATHER_API_KEY" validate:"required"`

	BaseURL     string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"required,url"`
	IconBaseURL string        `envconfig:"OPENWEATHER_ICON_BASE_URL" default:"https://openweathermap.org/img/wn" validate:"required,url"`
	Timeout     time.Duration `envconfig:"OPENWEATHER_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent   string        `envconfig:"OPENWEATHER_USER_AGENT" default:"WeatherLookup/1.0"`
}

// LookupConfig tunes the fetch-cycle orchestrator.
type LookupConfig struct {
	DefaultCity  string        `envconfig:"LOOKUP_DEFAULT_CITY" default:"Chennai" validate:"required"`
	CycleTimeout time.Duration `envconfig:"LOOKUP_CYCLE_TIMEOUT" default:"15s" validate:"gt=0"`
	Concurrent   bool          `envconfig:"LOOKUP_CONCURRENT" default:"true"`
}

// DisplayConfig controls how times are rendered.
type DisplayConfig struct {
	// Timezone is an IANA name, "Local" or "UTC".
	Timezone string `envconfig:"DISPLAY_TIMEZONE" default:"Local"`
}

// Location resolves Timezone.
func (d DisplayConfig) Location() (*time.Location, error) {
	switch d.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading display timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// AWSConfig holds regional configuration shared by SSM and CloudWatch.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"WeatherLookup"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
