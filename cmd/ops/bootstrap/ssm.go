package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmAppSegment is the application part of every parameter path.
const ssmAppSegment = "weatherlookup"

// ssmOperationTimeout is the per-call timeout. It is generous because IAM
// permissions can take a while to propagate during first setup.
const ssmOperationTimeout = 15 * time.Second

// SSMClient is the subset of the SSM API the tool uses.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMManager reads and writes the tool's parameters under
// /{env}/weatherlookup/. Secret values never reach the log; only their
// length does.
type SSMManager struct {
	client SSMClient
	env    string
	logger *slog.Logger
}

// NewSSMManager builds an SSMManager from the session's AWS config.
func NewSSMManager(bctx *BootstrapContext) *SSMManager {
	return NewSSMManagerWithClient(ssm.NewFromConfig(bctx.AWSConfig), bctx.Environment, bctx.Logger)
}

// NewSSMManagerWithClient injects the SSM client.
func NewSSMManagerWithClient(client SSMClient, env string, logger *slog.Logger) *SSMManager {
	return &SSMManager{client: client, env: env, logger: logger}
}

// SSMPath expands "openweather/api_key" into
// "/{env}/weatherlookup/openweather/api_key".
func (m *SSMManager) SSMPath(categoryAndKey string) string {
	return fmt.Sprintf("/%s/%s/%s", m.env, ssmAppSegment, categoryAndKey)
}

// ParameterExists probes path without decrypting it, so kms:Decrypt is not
// needed for the check.
func (m *SSMManager) ParameterExists(ctx context.Context, path string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	_, err := m.client.GetParameter(opCtx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(false),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking SSM parameter %q: %w", path, err)
	}
	return true, nil
}

// GetParameterValue reads path, decrypting SecureStrings when decrypt is set.
// It returns ("", false, nil) when the parameter does not exist.
func (m *SSMManager) GetParameterValue(ctx context.Context, path string, decrypt bool) (string, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	out, err := m.client.GetParameter(opCtx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading SSM parameter %q: %w", path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", false, fmt.Errorf("SSM parameter %q has no value", path)
	}

	value := aws.ToString(out.Parameter.Value)
	m.logger.Info("SSM parameter read", "path", path, "value_length", len(value))
	return value, true, nil
}

// PutSecret writes a SecureString. With overwrite false an existing
// parameter is an error.
func (m *SSMManager) PutSecret(ctx context.Context, path, value string, overwrite bool) error {
	return m.putParameter(ctx, path, value, ssmtypes.ParameterTypeSecureString, overwrite)
}

// PutString writes a plain String, always overwriting.
func (m *SSMManager) PutString(ctx context.Context, path, value string) error {
	return m.putParameter(ctx, path, value, ssmtypes.ParameterTypeString, true)
}

func (m *SSMManager) putParameter(ctx context.Context, path, value string, paramType ssmtypes.ParameterType, overwrite bool) error {
	if path == "" {
		return errors.New("SSM parameter path must not be empty")
	}
	if value == "" {
		return fmt.Errorf("SSM parameter value must not be empty for path %q", path)
	}

	opCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	_, err := m.client.PutParameter(opCtx, &ssm.PutParameterInput{
		Name:      aws.String(path),
		Value:     aws.String(value),
		Type:      paramType,
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		var exists *ssmtypes.ParameterAlreadyExists
		if errors.As(err, &exists) {
			m.logger.Warn("SSM parameter already exists", "path", path, "type", string(paramType))
			return fmt.Errorf("SSM parameter %q already exists: %w", path, err)
		}
		return fmt.Errorf("writing SSM parameter %q: %w", path, err)
	}

	attrs := []any{"path", path, "type", string(paramType)}
	if paramType == ssmtypes.ParameterTypeSecureString {
		attrs = append(attrs, "value_length", len(value))
	} else {
		attrs = append(attrs, "value", value)
	}
	m.logger.Info("SSM parameter written", attrs...)
	return nil
}
