package types

import "log/slog"

const redactedPlaceholder = "***REDACTED***"

// SecretString holds a credential (the upstream API key) and refuses to
// print or serialize it. fmt verbs, slog attributes and JSON encoding all see
// the placeholder; Unmask returns the real value for the one place that
// needs it, the outbound query string.
type SecretString string

// String returns the redacted placeholder.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// GoString covers %#v, which bypasses String.
func (s SecretString) GoString() string {
	return redactedPlaceholder
}

// LogValue keeps slog from printing the raw value.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// MarshalJSON encodes the redacted placeholder.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}

// Unmask returns the plaintext value.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsZero reports whether no secret was configured.
func (s SecretString) IsZero() bool {
	return s == ""
}
