// Package main is the entry point for the weather lookup web server.
//
// It loads configuration (resolving the API key from SSM outside local
// mode), wires the OpenWeatherMap client, the fetch-cycle orchestrator and
// the HTML and JSON handlers onto the core chassis, loads the default city
// and serves until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"weatherlookup/internal/api/handlers"
	"weatherlookup/internal/config"
	"weatherlookup/internal/core"
	"weatherlookup/internal/lookup"
	"weatherlookup/internal/openweather"
	"weatherlookup/internal/present"
	"weatherlookup/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(config.NewSSMProvider(config.AWSConfig{
		Region:      envOr("AWS_REGION", "us-east-1"),
		EndpointURL: os.Getenv("AWS_ENDPOINT_URL"),
	}))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("weather lookup starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		return err
	}

	a, err := buildApp(cfg, logger, metrics, nil)
	if err != nil {
		return err
	}

	if _, err := a.orchestrator.Bootstrap(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	return serve(ctx, a.server, cfg, logger)
}

// app is the wired service.
type app struct {
	server       *core.Server
	orchestrator *lookup.Orchestrator
}

// buildApp wires every component onto a mounted server. A non-nil
// httpClient replaces the upstream transport.
func buildApp(cfg *config.Config, logger *slog.Logger, metrics telemetry.Recorder, httpClient *http.Client, pageOpts ...handlers.PageOption) (*app, error) {
	loc, err := cfg.Display.Location()
	if err != nil {
		return nil, err
	}

	client := openweather.NewClient(openweather.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		APIKey:     cfg.Upstream.APIKey,
		Timeout:    cfg.Upstream.Timeout,
		UserAgent:  cfg.Upstream.UserAgent,
		Logger:     logger,
		Metrics:    metrics,
		HTTPClient: httpClient,
	})

	orch := lookup.NewOrchestrator(client,
		lookup.WithLogger(logger),
		lookup.WithMetrics(metrics),
		lookup.WithDefaultCity(cfg.Lookup.DefaultCity),
		lookup.WithCycleTimeout(cfg.Lookup.CycleTimeout),
		lookup.WithConcurrentFetch(cfg.Lookup.Concurrent),
	)

	renderer, err := present.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	formatter := present.NewFormatter(cfg.Upstream.IconBaseURL, loc)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.HealthProbes = append(srv.HealthProbes, core.NewBreakerProbe("openweathermap", client.Base()))

	page := handlers.NewPageHandler(orch, formatter, renderer, logger, pageOpts...)
	api := handlers.NewWeatherHandler(orch, srv.Validator, logger)
	srv.RouteRegistrars = append(srv.RouteRegistrars, page.RegisterRoutes)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, api.RegisterRoutes)

	if err := srv.MountRoutes(); err != nil {
		return nil, err
	}
	return &app{server: srv, orchestrator: orch}, nil
}

// newMetrics publishes to CloudWatch when enabled and discards otherwise.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (telemetry.Recorder, error) {
	if !cfg.Observability.MetricsEnabled {
		return telemetry.NoopMetrics{}, nil
	}
	awsCfg, err := config.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	return telemetry.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, logger), nil
}

// serve listens until ctx is cancelled, then drains connections within
// cfg.Server.ShutdownTimeout.
func serve(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	hs := srv.HTTPServer(":" + cfg.Server.Port)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", hs.Addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx, hs)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
