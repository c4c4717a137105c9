package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"weatherlookup/internal/types"
)

const validKey = "0123456789abcdef0123456789abcdef"

type stubProber struct {
	err error
}

func (p *stubProber) CurrentWeather(context.Context, types.LocationQuery) (*types.CurrentConditions, error) {
	return &types.CurrentConditions{}, p.err
}

func TestValidateAPIKey_Format(t *testing.T) {
	probed := false
	v := NewValidatorWithProber(func(types.SecretString) WeatherProber {
		probed = true
		return &stubProber{}
	})

	for _, key := range []string{"", "short", strings.Repeat("G", 32), strings.ToUpper(validKey), validKey + "0"} {
		if res := v.ValidateAPIKey(context.Background(), key); res.Valid {
			t.Errorf("ValidateAPIKey(%q) should fail", key)
		}
	}
	if probed {
		t.Error("malformed keys must not reach the API")
	}
}

func TestValidateAPIKey_LiveProbe(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
		wantMsg   string
	}{
		{"accepted", http.StatusOK, true, "accepted"},
		{"unauthorized", http.StatusUnauthorized, false, "rejected the key (401)"},
		{"server error", http.StatusInternalServerError, false, "could not verify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = r.URL.Query().Get("appid")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"name":"London","main":{"temp":11.2},"weather":[{"description":"mist","icon":"50d"}],"dt":1700000000,"timezone":0}`))
			}))
			defer srv.Close()

			res := NewValidator(srv.URL).ValidateAPIKey(context.Background(), validKey)
			if res.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (%s)", res.Valid, tt.wantValid, res.Message)
			}
			if !strings.Contains(res.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", res.Message, tt.wantMsg)
			}
			if gotKey != validKey {
				t.Errorf("probe sent appid %q", gotKey)
			}
			if strings.Contains(res.Message, validKey) {
				t.Error("message must not echo the key")
			}
		})
	}
}

func TestValidateCity(t *testing.T) {
	v := NewValidatorWithProber(nil)
	if res := v.ValidateCity(context.Background(), "  Pune "); !res.Valid {
		t.Errorf("Pune should be valid: %s", res.Message)
	}
	if res := v.ValidateCity(context.Background(), "   "); res.Valid {
		t.Error("blank city should fail")
	}
	if res := v.ValidateCity(context.Background(), strings.Repeat("é", 201)); res.Valid {
		t.Error("201 characters should fail")
	}
	if res := v.ValidateCity(context.Background(), strings.Repeat("é", 200)); !res.Valid {
		t.Error("200 multi-byte characters should pass")
	}
}
