package types

// Telemetry metric names for CloudWatch.
const (
	// Metric Names
	MetricLookupCycle     = "LookupCycle"
	MetricLookupLatency   = "LookupLatency"
	MetricUpstreamFailure = "UpstreamFailure"
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"

	// Dimension Keys
	DimResult   = "Result"
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "Status"

	// MetricNamespace is the default CloudWatch namespace.
	MetricNamespace = "WeatherLookup"
)
