package config

import "context"

// SecretProvider resolves secret paths to plaintext values. SSMProvider is
// the production implementation.
type SecretProvider interface {
	// GetParametersBatch returns path -> value for every path it could
	// resolve. Unknown paths are either omitted or reported as an error.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
