// Package telemetry publishes lookup and API metrics to CloudWatch.
//
// Metrics emitted:
//   - LookupCycle: Dims {Result} -- one per finished cycle, stale ones included
//   - LookupLatency: Dims {Result} -- cycle duration in milliseconds
//   - UpstreamFailure: Dims {Endpoint, Result} -- one per failed upstream call
//   - APIRequestCount / APILatency: Dims {Method, Endpoint, Status}
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"weatherlookup/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Recorder is the union of the metric sinks the lookup pipeline and the HTTP
// chassis accept.
type Recorder interface {
	RecordCycle(ctx context.Context, result types.CycleResult, latency time.Duration)
	RecordUpstreamFailure(ctx context.Context, endpoint types.UpstreamEndpoint, code types.ErrorCode)
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

var (
	_ Recorder = (*CloudWatchMetrics)(nil)
	_ Recorder = NoopMetrics{}
)

// CloudWatchMetrics sends every data point synchronously. Publishing
// failures are logged and otherwise ignored.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a recorder publishing to namespace. An empty
// namespace uses types.MetricNamespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordCycle emits LookupCycle and LookupLatency with the Result dimension.
func (m *CloudWatchMetrics) RecordCycle(ctx context.Context, result types.CycleResult, latency time.Duration) {
	dims := []cwtypes.Dimension{dimension(types.DimResult, string(result))}
	m.put(ctx, "lookup cycle",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricLookupCycle),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricLookupLatency),
			Value:      aws.Float64(float64(latency.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

// RecordUpstreamFailure emits UpstreamFailure keyed by endpoint and error code.
func (m *CloudWatchMetrics) RecordUpstreamFailure(ctx context.Context, endpoint types.UpstreamEndpoint, code types.ErrorCode) {
	m.put(ctx, "upstream failure", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricUpstreamFailure),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dimension(types.DimEndpoint, string(endpoint)),
			dimension(types.DimResult, string(code)),
		},
	})
}

// RecordRequest emits APIRequestCount and APILatency for one HTTP request.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dimension(types.DimMethod, method),
		dimension(types.DimEndpoint, endpoint),
		dimension(types.DimStatus, status),
	}
	m.put(context.Background(), "api request",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

func (m *CloudWatchMetrics) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(context.WithoutCancel(ctx), input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record metric",
			"metric", what,
			"error", err.Error(),
		)
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// NoopMetrics discards everything. Used when METRICS_ENABLED is false.
type NoopMetrics struct{}

func (NoopMetrics) RecordCycle(context.Context, types.CycleResult, time.Duration) {}

func (NoopMetrics) RecordUpstreamFailure(context.Context, types.UpstreamEndpoint, types.ErrorCode) {}

func (NoopMetrics) RecordRequest(string, string, string, time.Duration) {}
