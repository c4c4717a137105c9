// Package main is an interactive terminal front end for the weather lookup
// pipeline. It loads the default city, then reads one city name per line.
// "refresh" repeats the displayed lookup and "quit" (or EOF) exits. Every
// state transition is printed as a text report.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"weatherlookup/internal/config"
	"weatherlookup/internal/lookup"
	"weatherlookup/internal/openweather"
	"weatherlookup/internal/present"
	"weatherlookup/internal/types"
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

	// Logs go to stderr so they never interleave with the report on stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	loc, err := cfg.Display.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := openweather.NewClient(openweather.Config{
		BaseURL:   cfg.Upstream.BaseURL,
		APIKey:    cfg.Upstream.APIKey,
		Timeout:   cfg.Upstream.Timeout,
		UserAgent: cfg.Upstream.UserAgent,
		Logger:    logger,
	})

	return runSession(ctx, session{
		source:    client,
		formatter: present.NewFormatter(cfg.Upstream.IconBaseURL, loc),
		logger:    logger,
		opts: []lookup.Option{
			lookup.WithDefaultCity(cfg.Lookup.DefaultCity),
			lookup.WithCycleTimeout(cfg.Lookup.CycleTimeout),
			lookup.WithConcurrentFetch(cfg.Lookup.Concurrent),
		},
	}, os.Stdin, os.Stdout)
}

// session is everything runSession needs besides its streams.
type session struct {
	source    lookup.WeatherSource
	formatter *present.Formatter
	logger    *slog.Logger
	opts      []lookup.Option
}

// runSession drives one orchestrator from line input until quit, EOF or
// ctx cancellation. Lines are handled one at a time; each lookup finishes
// before the next line is read.
func runSession(ctx context.Context, s session, in io.Reader, out io.Writer) error {
	renderer, err := present.NewRenderer()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	show := func(state types.FetchState) {
		if err := renderer.RenderText(out, s.formatter.View(state)); err != nil {
			s.logger.Error("rendering report failed", "error", err)
		}
		fmt.Fprintln(out)
	}

	opts := append([]lookup.Option{lookup.WithLogger(s.logger), lookup.WithTransitionHook(show)}, s.opts...)
	orch := lookup.NewOrchestrator(s.source, opts...)

	cycle, err := orch.Bootstrap(ctx)
	if err != nil {
		return err
	}
	select {
	case <-cycle.Done():
	case <-ctx.Done():
		return nil
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(out, "city> ")

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out)
			return <-readErr
		}

		switch cmd := strings.TrimSpace(line); {
		case cmd == "":
			continue
		case strings.EqualFold(cmd, "quit"), strings.EqualFold(cmd, "exit"):
			return nil
		case strings.EqualFold(cmd, "refresh"):
			if _, err := orch.Refresh(ctx); err != nil {
				fmt.Fprintln(out, "Nothing to refresh yet. Enter a city name.")
			}
		default:
			if _, err := orch.Submit(ctx, cmd); err != nil {
				s.logger.Warn("lookup rejected", "error", err)
			}
		}
	}
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
