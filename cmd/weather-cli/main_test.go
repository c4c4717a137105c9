package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherlookup/internal/present"
	"weatherlookup/internal/types"
)

type tableSource struct {
	mu      sync.Mutex
	queries []types.LocationQuery
}

func (s *tableSource) CurrentWeather(_ context.Context, q types.LocationQuery) (*types.CurrentConditions, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if q != "Chennai" {
		return nil, types.NewAppError(types.ErrCodeNotFoundCity, "city not found", nil)
	}
	return &types.CurrentConditions{Name: "Chennai", Country: "IN", Description: "haze", Temperature: 30.6}, nil
}

func (s *tableSource) Forecast(context.Context, types.LocationQuery) ([]types.ForecastPoint, error) {
	return []types.ForecastPoint{{Dt: 1700049600, DtTxt: "2023-11-15 12:00:00", Label: "Rain", Temperature: 30.1}}, nil
}

func (s *tableSource) calls() []types.LocationQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.LocationQuery(nil), s.queries...)
}

func newTestSession(src *tableSource) session {
	return session{
		source:    src,
		formatter: present.NewFormatter("", time.UTC),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunSession(t *testing.T) {
	src := &tableSource{}
	out := &bytes.Buffer{}

	err := runSession(context.Background(), newTestSession(src), strings.NewReader("Atlantis\n\n   \nrefresh\nChennai\nrefresh\nquit\nPune\n"), out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Loading weather for Chennai...")
	assert.Contains(t, text, "5-Day Forecast")
	assert.Contains(t, text, "City not found. Please try again.")
	assert.Contains(t, text, "Nothing to refresh yet.")

	// Bootstrap, Atlantis, Chennai, refresh; quit stops before Pune.
	assert.Equal(t, []types.LocationQuery{"Chennai", "Atlantis", "Chennai", "Chennai"}, src.calls())
}

func TestRunSession_EOFEndsCleanly(t *testing.T) {
	src := &tableSource{}
	err := runSession(context.Background(), newTestSession(src), strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	assert.Len(t, src.calls(), 1)
}

func TestRunSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() { done <- runSession(ctx, newTestSession(&tableSource{}), pr, io.Discard) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runSession did not return after cancellation")
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
