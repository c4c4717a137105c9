package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is returned by LoadConfig and says which stage failed.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks pointer variables: OPENWEATHER_API_KEY_SSM_PARAM holds
// the SSM path whose value becomes OPENWEATHER_API_KEY.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses SSM resolution.
const localEnv = "local"

// ssmTimeout bounds the whole resolution step.
const ssmTimeout = 30 * time.Second

// loaderDeps holds the process-environment hooks, swapped out in tests.
type loaderDeps struct {
	lookupEnv func(key string) (string, bool)
	setEnv    func(key, value string) error
	environ   func() []string
	dotenv    func() error
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
		dotenv:    func() error { return godotenv.Load() },
	}
}

// LoadConfig loads and validates the configuration.
//
//  1. Loads a .env file if present. Existing variables are not overridden.
//  2. Outside APP_ENV=local, resolves *_SSM_PARAM pointers through provider.
//  3. Populates Config from envconfig tags.
//  4. Fills Config.Build from linker-injected variables.
//  5. Validates the struct and the display timezone.
//
// provider may be nil when no *_SSM_PARAM variables are set.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	if deps.dotenv != nil {
		// A missing .env file is the normal case outside local development.
		_ = deps.dotenv()
	}

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	if _, err := cfg.Display.Location(); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "DISPLAY_TIMEZONE is not a known location",
			Err:     err,
		}
	}

	return &cfg, nil
}

// resolveSSMParams fetches every *_SSM_PARAM pointer whose target variable is
// not already set and injects the values into the environment, so that
// envconfig picks them up. A directly set variable always wins.
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	pathToTarget := make(map[string]string)
	for _, entry := range deps.environ() {
		key, path, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasSuffix(key, ssmParamSuffix) || path == "" {
			continue
		}
		target := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		pathToTarget[path] = target
	}

	if len(pathToTarget) == 0 {
		return nil
	}

	paths := make([]string, 0, len(pathToTarget))
	for p := range pathToTarget {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if provider == nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("a SecretProvider is required to resolve %s", strings.Join(targetsOf(paths, pathToTarget), ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ssmTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(paths)),
			Err:     err,
		}
	}

	var missing []string
	for _, path := range paths {
		target := pathToTarget[path]
		value, ok := resolved[path]
		if !ok {
			missing = append(missing, target)
			continue
		}
		if err := deps.setEnv(target, value); err != nil {
			return &ConfigError{
				Type:    ErrSSMResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", target),
				Err:     err,
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func targetsOf(paths []string, pathToTarget map[string]string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, pathToTarget[p])
	}
	return out
}
