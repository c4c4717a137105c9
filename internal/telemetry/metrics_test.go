package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"weatherlookup/internal/types"
)

// mockCloudWatchClient records PutMetricData calls for verification.
type mockCloudWatchClient struct {
	calls     []*cloudwatch.PutMetricDataInput
	returnErr error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func assertDimension(t *testing.T, dims []cwtypes.Dimension, name, want string) {
	t.Helper()
	for _, d := range dims {
		if *d.Name == name {
			if *d.Value != want {
				t.Errorf("dimension %s = %q, want %q", name, *d.Value, want)
			}
			return
		}
	}
	t.Errorf("dimension %s not found", name)
}

func TestRecordCycle(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := NewCloudWatchMetrics(cw, "", nil)

	m.RecordCycle(context.Background(), types.CycleResultNotFound, 1500*time.Millisecond)

	if len(cw.calls) != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", len(cw.calls))
	}
	input := cw.calls[0]
	if *input.Namespace != types.MetricNamespace {
		t.Errorf("namespace = %q, want %q", *input.Namespace, types.MetricNamespace)
	}
	if len(input.MetricData) != 2 {
		t.Fatalf("expected 2 metric data, got %d", len(input.MetricData))
	}

	count, latency := input.MetricData[0], input.MetricData[1]
	if *count.MetricName != types.MetricLookupCycle || *count.Value != 1 || count.Unit != cwtypes.StandardUnitCount {
		t.Errorf("unexpected count datum: %s=%v %s", *count.MetricName, *count.Value, count.Unit)
	}
	if *latency.MetricName != types.MetricLookupLatency || *latency.Value != 1500 || latency.Unit != cwtypes.StandardUnitMilliseconds {
		t.Errorf("unexpected latency datum: %s=%v %s", *latency.MetricName, *latency.Value, latency.Unit)
	}
	assertDimension(t, count.Dimensions, types.DimResult, "not_found")
	assertDimension(t, latency.Dimensions, types.DimResult, "not_found")
}

func TestRecordUpstreamFailure(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := NewCloudWatchMetrics(cw, "Custom", nil)

	m.RecordUpstreamFailure(context.Background(), types.EndpointForecast, types.ErrCodeUpstreamStatus)

	if len(cw.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(cw.calls))
	}
	if *cw.calls[0].Namespace != "Custom" {
		t.Errorf("namespace = %q, want Custom", *cw.calls[0].Namespace)
	}
	datum := cw.calls[0].MetricData[0]
	if *datum.MetricName != types.MetricUpstreamFailure {
		t.Errorf("metric = %q", *datum.MetricName)
	}
	assertDimension(t, datum.Dimensions, types.DimEndpoint, "forecast")
	assertDimension(t, datum.Dimensions, types.DimResult, "upstream_status_error")
}

func TestRecordRequest(t *testing.T) {
	cw := &mockCloudWatchClient{}
	m := NewCloudWatchMetrics(cw, "", nil)

	m.RecordRequest("POST", "/v1/weather", "200", 42*time.Millisecond)

	if len(cw.calls) != 1 || len(cw.calls[0].MetricData) != 2 {
		t.Fatalf("expected one call with two data points, got %+v", cw.calls)
	}
	for _, datum := range cw.calls[0].MetricData {
		assertDimension(t, datum.Dimensions, types.DimMethod, "POST")
		assertDimension(t, datum.Dimensions, types.DimEndpoint, "/v1/weather")
		assertDimension(t, datum.Dimensions, types.DimStatus, "200")
	}
	if got := *cw.calls[0].MetricData[1].Value; got != 42 {
		t.Errorf("latency = %v, want 42", got)
	}
}

func TestPublishErrorIsSwallowed(t *testing.T) {
	cw := &mockCloudWatchClient{returnErr: errors.New("throttled")}
	m := NewCloudWatchMetrics(cw, "", nil)

	// Must not panic or block.
	m.RecordCycle(context.Background(), types.CycleResultSuccess, time.Second)
	m.RecordRequest("GET", "/", "200", time.Millisecond)

	if len(cw.calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(cw.calls))
	}
}

func TestNoopMetrics(t *testing.T) {
	var r Recorder = NoopMetrics{}
	r.RecordCycle(context.Background(), types.CycleResultGeneric, time.Second)
	r.RecordUpstreamFailure(context.Background(), types.EndpointCurrentWeather, types.ErrCodeNotFoundCity)
	r.RecordRequest("GET", "/health", "200", time.Millisecond)
}
