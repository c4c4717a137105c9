package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

const apiKey = "0123456789abcdef0123456789abcdef"

func TestSecretString_NeverRendersKey(t *testing.T) {
	key := SecretString(apiKey)

	renderings := map[string]func() string{
		"String": key.String,
		"%s":     func() string { return fmt.Sprintf("%s", key) },
		"%v":     func() string { return fmt.Sprintf("%v", key) },
		"%+v":    func() string { return fmt.Sprintf("%+v", key) },
		"%#v":    func() string { return fmt.Sprintf("%#v", key) },
		"%q":     func() string { return fmt.Sprintf("%q", key) },
		"struct": func() string {
			return fmt.Sprintf("%+v", struct{ APIKey SecretString }{key})
		},
		"json": func() string {
			b, err := json.Marshal(struct {
				APIKey SecretString `json:"api_key"`
				City   string       `json:"city"`
			}{key, "Chennai"})
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			return string(b)
		},
		"slog": func() string {
			var buf bytes.Buffer
			slog.New(slog.NewJSONHandler(&buf, nil)).Info("upstream configured", "api_key", key)
			return buf.String()
		},
	}

	for name, render := range renderings {
		t.Run(name, func(t *testing.T) {
			out := render()
			if strings.Contains(out, apiKey) {
				t.Fatalf("key leaked: %s", out)
			}
			if !strings.Contains(out, redactedPlaceholder) {
				t.Errorf("placeholder missing: %s", out)
			}
		})
	}
}

func TestSecretString_Unmask(t *testing.T) {
	if got := SecretString(apiKey).Unmask(); got != apiKey {
		t.Errorf("Unmask() = %q, want %q", got, apiKey)
	}
	if got := SecretString("").Unmask(); got != "" {
		t.Errorf("Unmask() on empty = %q", got)
	}
}

func TestSecretString_IsZero(t *testing.T) {
	if !SecretString("").IsZero() {
		t.Error("empty key should be zero")
	}
	if SecretString(apiKey).IsZero() {
		t.Error("configured key should not be zero")
	}
}
