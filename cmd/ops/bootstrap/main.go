// Package main implements the bootstrap CLI for weatherlookup deployments.
//
// It walks an operator through storing the OpenWeatherMap API key (and an
// optional default city) in AWS SSM Parameter Store, where the service's
// config loader resolves them through *_SSM_PARAM pointers.
//
// Usage:
//
//	go run ./cmd/ops/bootstrap --env=dev
//	go run ./cmd/ops/bootstrap --env=dev --export-env
//	go run ./cmd/ops/bootstrap --env=prod --profile=weather-prod --region=us-east-1
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var validEnvironments = map[string]bool{
	"dev":     true,
	"staging": true,
	"prod":    true,
}

// identityTimeout fails fast on bad credentials.
const identityTimeout = 10 * time.Second

// BootstrapContext is the session established before any parameter is
// touched.
type BootstrapContext struct {
	Environment string
	AWSProfile  string
	AWSRegion   string

	// Resolved via STS GetCallerIdentity.
	AccountID string
	CallerARN string

	AWSConfig aws.Config
	Logger    *slog.Logger
}

// IdentityClient is the STS subset used to verify credentials.
type IdentityClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// options are the parsed command-line flags.
type options struct {
	env           string
	profile       string
	region        string
	upstreamURL   string
	exportEnv     bool
	exportEnvPath string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("bootstrap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.env, "env", "", "Target environment (dev/staging/prod) [required]")
	fs.StringVar(&o.profile, "profile", "", "AWS CLI profile (default: uses default credential chain)")
	fs.StringVar(&o.region, "region", "us-east-1", "AWS region")
	fs.StringVar(&o.upstreamURL, "openweather-url", "https://api.openweathermap.org/data/2.5", "OpenWeatherMap API root used to verify the key")
	fs.BoolVar(&o.exportEnv, "export-env", false, "After bootstrap, write the stored values to a .env file for local development")
	fs.StringVar(&o.exportEnvPath, "export-env-path", ".env", "Path for the exported .env file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Weather Lookup Bootstrap Tool\n\n")
		fmt.Fprintf(stderr, "Stores the OpenWeatherMap API key in AWS SSM Parameter Store.\n\n")
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  bootstrap --env=dev [--profile=NAME] [--region=REGION] [--export-env]\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.env == "" {
		fs.Usage()
		return o, fmt.Errorf("--env is required")
	}
	if !validEnvironments[o.env] {
		return o, fmt.Errorf("invalid environment %q (must be dev, staging, or prod)", o.env)
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bctx, err := initializeSession(ctx, opts, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	runner := NewBootstrapRunner(bctx, NewValidator(opts.upstreamURL))
	if bctx.Environment == "prod" && !confirmProduction(bctx, runner.scanLine, os.Stderr) {
		fmt.Fprintln(os.Stderr, "Aborted. No changes were made.")
		return
	}

	printBanner(bctx, os.Stderr)

	if err := runner.Run(ctx); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	if opts.exportEnv {
		err := ExportEnvFile(ctx, ExportEnvConfig{
			OutputPath:           opts.exportEnvPath,
			SSM:                  runner.SSM,
			Steps:                runner.inventory(),
			Stderr:               os.Stderr,
			IncludeLocalDefaults: true,
		})
		if err != nil {
			logger.Error("failed to export .env file", "error", err)
			os.Exit(1)
		}
		logger.Info(".env file exported", "path", opts.exportEnvPath)
	}
}

// initializeSession loads the AWS SDK configuration and verifies the active
// identity before any parameter is read or written.
func initializeSession(ctx context.Context, opts options, logger *slog.Logger) (*BootstrapContext, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.region))
	}
	if opts.profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	bctx := &BootstrapContext{
		Environment: opts.env,
		AWSProfile:  opts.profile,
		AWSRegion:   opts.region,
		AWSConfig:   cfg,
		Logger:      logger,
	}
	if err := verifyIdentity(ctx, sts.NewFromConfig(cfg), bctx); err != nil {
		return nil, err
	}
	return bctx, nil
}

// verifyIdentity fills AccountID and CallerARN from STS.
func verifyIdentity(ctx context.Context, client IdentityClient, bctx *BootstrapContext) error {
	idCtx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	identity, err := client.GetCallerIdentity(idCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("verifying AWS identity (STS GetCallerIdentity): %w\n"+
			"  Check that your AWS credentials are configured correctly.\n"+
			"  Profile: %q, Region: %q", err, bctx.AWSProfile, bctx.AWSRegion)
	}

	bctx.AccountID = aws.ToString(identity.Account)
	bctx.CallerARN = aws.ToString(identity.Arn)
	bctx.Logger.Info("AWS identity verified",
		"account_id", bctx.AccountID,
		"arn", bctx.CallerARN,
		"region", bctx.AWSRegion,
	)
	return nil
}

// confirmProduction requires the operator to type "yes" before any write to
// the production account. readLine shares the runner's scanner so no input
// is buffered away from later prompts.
func confirmProduction(bctx *BootstrapContext, readLine func() (string, error), out io.Writer) bool {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintln(out, "  WARNING: You are targeting the PRODUCTION environment")
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintf(out, "  Account: %s\n", bctx.AccountID)
	fmt.Fprintf(out, "  Region:  %s\n", bctx.AWSRegion)
	fmt.Fprintf(out, "  ARN:     %s\n", bctx.CallerARN)
	fmt.Fprintln(out, "============================================================")
	fmt.Fprint(out, "\nType 'yes' to continue: ")

	line, err := readLine()
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}

func printBanner(bctx *BootstrapContext, out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintln(out, "  Weather Lookup Bootstrap")
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintf(out, "  Environment:  %s\n", bctx.Environment)
	fmt.Fprintf(out, "  AWS Account:  %s\n", bctx.AccountID)
	fmt.Fprintf(out, "  AWS Region:   %s\n", bctx.AWSRegion)
	fmt.Fprintf(out, "  Identity:     %s\n", bctx.CallerARN)
	if bctx.AWSProfile != "" {
		fmt.Fprintf(out, "  Profile:      %s\n", bctx.AWSProfile)
	}
	fmt.Fprintf(out, "  SSM Prefix:   /%s/%s/\n", bctx.Environment, ssmAppSegment)
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintln(out)
}
