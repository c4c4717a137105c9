package core

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"weatherlookup/internal/config"
)

// testLogger discards everything below error.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordedRequest is one RecordRequest call.
type recordedRequest struct {
	method, endpoint, status string
}

// mockMetricsCollector records RecordRequest calls.
type mockMetricsCollector struct {
	mu    sync.Mutex
	calls []recordedRequest
}

func (m *mockMetricsCollector) RecordRequest(method, endpoint, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedRequest{method, endpoint, status})
}

func (m *mockMetricsCollector) recorded() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedRequest(nil), m.calls...)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(&config.Config{Environment: "local"}, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t)

	if srv.Validator == nil {
		t.Error("expected Validator to be initialized")
	}
	if srv.Router() == nil || srv.Handler() == nil {
		t.Error("expected router to be initialized")
	}
}

func TestNewServer_RejectsNilDependencies(t *testing.T) {
	if _, err := NewServer(nil, testLogger()); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(&config.Config{}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestHTTPServer_UsesRouter(t *testing.T) {
	srv := newTestServer(t)
	hs := srv.HTTPServer(":0")

	if hs.Addr != ":0" {
		t.Errorf("Addr = %q, want :0", hs.Addr)
	}
	if hs.ReadHeaderTimeout == 0 {
		t.Error("expected ReadHeaderTimeout to be set")
	}
}

func TestShutdown_DrainsServer(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewUnstartedServer(http.NotFoundHandler())
	ts.Start()
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx, ts.Config); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
