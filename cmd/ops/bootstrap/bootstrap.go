package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ParameterType is how a value is stored in SSM.
type ParameterType int

const (
	ParamSecureString ParameterType = iota
	ParamString
)

// BootstrapStep is one parameter the operator is asked for.
type BootstrapStep struct {
	HumanLabel string

	// SSMCategoryKey becomes /{env}/weatherlookup/{SSMCategoryKey}.
	SSMCategoryKey string

	// EnvVar is the variable the service reads the value from. Its
	// EnvVar+"_SSM_PARAM" pointer is what deployments set.
	EnvVar string

	ParamType  ParameterType
	Prompt     string
	ValidateFn func(ctx context.Context, input string) ValidationResult

	// IsSecret masks terminal input and keeps the value out of every
	// message.
	IsSecret bool

	// Optional steps are skipped on empty input without asking.
	Optional bool
}

// maxRetries bounds failed validations per step.
const maxRetries = 5

var errSkipped = errors.New("parameter skipped by operator")

// BuildInventory lists the parameters in the order they are asked for.
func BuildInventory(v *Validator) []BootstrapStep {
	return []BootstrapStep{
		{
			HumanLabel:     "OpenWeatherMap API Key",
			SSMCategoryKey: "openweather/api_key",
			EnvVar:         "OPENWEATHER_API_KEY",
			ParamType:      ParamSecureString,
			Prompt: `1. Sign in at https://home.openweathermap.org/api_keys.
   2. Create a key (or copy an existing one).
   3. Paste the 32-character key here:`,
			ValidateFn: v.ValidateAPIKey,
			IsSecret:   true,
		},
		{
			HumanLabel:     "Default City",
			SSMCategoryKey: "lookup/default_city",
			EnvVar:         "LOOKUP_DEFAULT_CITY",
			ParamType:      ParamString,
			Prompt:         `City loaded at startup (press Enter to keep Chennai):`,
			ValidateFn:     v.ValidateCity,
			Optional:       true,
		},
	}
}

// BootstrapRunner walks the inventory against one environment.
type BootstrapRunner struct {
	SSM       *SSMManager
	Validator *Validator
	Stdin     io.Reader
	Stderr    io.Writer

	// TTY, when set and a terminal, is used for hidden secret entry.
	TTY *os.File

	// scanner is shared by every prompt so buffered input is never lost
	// between them.
	scanner *bufio.Scanner

	inventoryOverride []BootstrapStep
}

// NewBootstrapRunner wires the runner to the process's stdin and stderr.
func NewBootstrapRunner(bctx *BootstrapContext, v *Validator) *BootstrapRunner {
	return &BootstrapRunner{
		SSM:       NewSSMManager(bctx),
		Validator: v,
		Stdin:     os.Stdin,
		Stderr:    os.Stderr,
		TTY:       os.Stdin,
	}
}

type stepResult struct {
	Label  string
	Action string // written, overwritten, skipped
	Path   string
	EnvVar string

	// Stored is true when the parameter exists in SSM after the step.
	Stored bool
}

func (r *BootstrapRunner) inventory() []BootstrapStep {
	if r.inventoryOverride != nil {
		return r.inventoryOverride
	}
	return BuildInventory(r.Validator)
}

// Run processes every step, then prints a summary with the *_SSM_PARAM
// lines a deployment needs.
func (r *BootstrapRunner) Run(ctx context.Context) error {
	steps := r.inventory()
	results := make([]stepResult, 0, len(steps))

	for i, step := range steps {
		fmt.Fprintf(r.Stderr, "\n[%d/%d] %s\n", i+1, len(steps), step.HumanLabel)

		res, err := r.processStep(ctx, step)
		if err != nil {
			return fmt.Errorf("step %q failed: %w", step.HumanLabel, err)
		}
		results = append(results, res)
	}

	r.printSummary(results)
	return nil
}

func (r *BootstrapRunner) processStep(ctx context.Context, step BootstrapStep) (stepResult, error) {
	path := r.SSM.SSMPath(step.SSMCategoryKey)
	result := stepResult{Label: step.HumanLabel, Path: path, EnvVar: step.EnvVar}

	exists, err := r.SSM.ParameterExists(ctx, path)
	if err != nil {
		return result, err
	}
	result.Stored = exists
	if exists {
		fmt.Fprintf(r.Stderr, "  Parameter already exists: %s\n", path)
		choice, err := r.promptChoice("  [S]kip or [O]verwrite? ", "overwrite")
		if err != nil {
			return result, fmt.Errorf("reading skip/overwrite choice: %w", err)
		}
		if choice == "skip" {
			fmt.Fprintln(r.Stderr, "  Skipped.")
			result.Action = "skipped"
			return result, nil
		}
	}

	value, err := r.promptAndValidate(ctx, step)
	if errors.Is(err, errSkipped) {
		fmt.Fprintln(r.Stderr, "  Skipped.")
		result.Action = "skipped"
		return result, nil
	}
	if err != nil {
		return result, err
	}

	if step.ParamType == ParamSecureString {
		err = r.SSM.PutSecret(ctx, path, value, exists)
	} else {
		err = r.SSM.PutString(ctx, path, value)
	}
	if err != nil {
		return result, err
	}

	result.Action = "written"
	result.Stored = true
	if exists {
		result.Action = "overwritten"
	}
	fmt.Fprintf(r.Stderr, "  Stored: %s\n", path)
	return result, nil
}

// promptAndValidate reads input until it validates, the operator skips, or
// maxRetries validations have failed.
func (r *BootstrapRunner) promptAndValidate(ctx context.Context, step BootstrapStep) (string, error) {
	fmt.Fprintf(r.Stderr, "\n  %s\n\n", step.Prompt)

	for attempt := 1; attempt <= maxRetries; {
		var (
			input string
			err   error
		)
		if step.IsSecret {
			input, err = r.readSecretInput("  > ")
		} else {
			input, err = r.readInput("  > ")
		}
		if err != nil {
			return "", fmt.Errorf("reading input for %s: %w", step.HumanLabel, err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			if step.Optional {
				return "", errSkipped
			}
			choice, err := r.promptChoice("  No input received. [S]kip this parameter or [R]etry? ", "retry")
			if err != nil {
				return "", fmt.Errorf("reading skip/retry choice for %s: %w", step.HumanLabel, err)
			}
			if choice == "skip" {
				return "", errSkipped
			}
			continue
		}

		if step.IsSecret {
			fmt.Fprintf(r.Stderr, "  Received %d chars.\n", len(input))
		}

		if step.ValidateFn != nil {
			vr := step.ValidateFn(ctx, input)
			if !vr.Valid {
				fmt.Fprintf(r.Stderr, "  Validation failed: %s\n", vr.Message)
				if attempt < maxRetries {
					fmt.Fprintf(r.Stderr, "  Try again (%d/%d).\n", attempt, maxRetries)
				}
				attempt++
				continue
			}
			fmt.Fprintf(r.Stderr, "  Validated: %s\n", vr.Message)
		}
		return input, nil
	}

	return "", fmt.Errorf("maximum retries (%d) exceeded for %s", maxRetries, step.HumanLabel)
}

// scanLine returns io.EOF once input is exhausted.
func (r *BootstrapRunner) scanLine() (string, error) {
	if r.scanner == nil {
		r.scanner = bufio.NewScanner(r.Stdin)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *BootstrapRunner) readInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)
	return r.scanLine()
}

// readSecretInput disables echo when TTY is a terminal and falls back to a
// plain line read for piped input.
func (r *BootstrapRunner) readSecretInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)

	if r.TTY != nil && term.IsTerminal(int(r.TTY.Fd())) {
		secret, err := term.ReadPassword(int(r.TTY.Fd()))
		fmt.Fprintln(r.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return string(secret), nil
	}
	return r.scanLine()
}

// promptChoice asks until the answer is skip or alt (or their first
// letters).
func (r *BootstrapRunner) promptChoice(prompt, alt string) (string, error) {
	for {
		fmt.Fprint(r.Stderr, prompt)
		line, err := r.scanLine()
		if err != nil {
			return "", err
		}
		switch choice := strings.ToLower(strings.TrimSpace(line)); choice {
		case "s", "skip":
			return "skip", nil
		case alt[:1], alt:
			return alt, nil
		default:
			fmt.Fprintf(r.Stderr, "  Please enter 'S' to skip or '%s' to %s.\n", strings.ToUpper(alt[:1]), alt)
		}
	}
}

func (r *BootstrapRunner) printSummary(results []stepResult) {
	fmt.Fprintln(r.Stderr)
	fmt.Fprintln(r.Stderr, "============================================================")
	fmt.Fprintln(r.Stderr, "  Bootstrap Summary")
	fmt.Fprintln(r.Stderr, "============================================================")
	for _, res := range results {
		fmt.Fprintf(r.Stderr, "  %-14s %s\n", "["+strings.ToUpper(res.Action)+"]", res.Label)
	}
	fmt.Fprintln(r.Stderr, "------------------------------------------------------------")
	fmt.Fprintln(r.Stderr, "  Set these on the service:")
	for _, res := range results {
		if !res.Stored {
			continue
		}
		fmt.Fprintf(r.Stderr, "    %s_SSM_PARAM=%s\n", res.EnvVar, res.Path)
	}
	fmt.Fprintln(r.Stderr, "============================================================")
	fmt.Fprintln(r.Stderr)
}
