package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
)

// localDefaults are added to an exported .env so `go run ./cmd/weather`
// works without further setup. APP_ENV=local also stops the service from
// resolving *_SSM_PARAM pointers.
var localDefaults = map[string]string{
	"APP_ENV":   "local",
	"LOG_LEVEL": "debug",
	"PORT":      "8080",
}

// ExportEnvConfig controls ExportEnvFile.
type ExportEnvConfig struct {
	OutputPath string
	SSM        *SSMManager
	Steps      []BootstrapStep
	Stderr     io.Writer

	IncludeLocalDefaults bool
}

// ExportEnvFile reads every step's parameter back from SSM and writes them
// as plain variables to a 0600 dotenv file. The API key must be present;
// optional parameters that were never stored are left out.
func ExportEnvFile(ctx context.Context, cfg ExportEnvConfig) error {
	env := make(map[string]string, len(cfg.Steps)+len(localDefaults))
	if cfg.IncludeLocalDefaults {
		for k, v := range localDefaults {
			env[k] = v
		}
	}

	for _, step := range cfg.Steps {
		path := cfg.SSM.SSMPath(step.SSMCategoryKey)
		value, ok, err := cfg.SSM.GetParameterValue(ctx, path, step.ParamType == ParamSecureString)
		if err != nil {
			return err
		}
		if !ok {
			if step.Optional {
				continue
			}
			return fmt.Errorf("required parameter %s is not set; run bootstrap first", path)
		}
		env[step.EnvVar] = value
	}

	content, err := godotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding .env: %w", err)
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(content+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(cfg.OutputPath, 0o600); err != nil {
		return fmt.Errorf("restricting %s: %w", cfg.OutputPath, err)
	}

	fmt.Fprintf(cfg.Stderr, "  Wrote %d variables to %s\n", len(env), cfg.OutputPath)
	return nil
}
