package types

// FetchStatus is the lifecycle state of the lookup pipeline.
type FetchStatus string

const (
	StatusIdle    FetchStatus = "idle"
	StatusLoading FetchStatus = "loading"
	StatusSuccess FetchStatus = "success"
	StatusFailed  FetchStatus = "failed"
)

// FailureReason classifies a failed fetch cycle. It is empty unless the
// status is StatusFailed.
type FailureReason string

const (
	ReasonNotFound FailureReason = "not_found"
	ReasonGeneric  FailureReason = "generic"
)

// Message returns the user-facing banner text for the reason.
func (r FailureReason) Message() string {
	switch r {
	case ReasonNotFound:
		return "City not found. Please try again."
	case ReasonGeneric:
		return "An error occurred."
	default:
		return ""
	}
}

// CycleResult is the metric dimension value recorded for a finished cycle.
type CycleResult string

const (
	CycleResultSuccess  CycleResult = "success"
	CycleResultNotFound CycleResult = "not_found"
	CycleResultGeneric  CycleResult = "generic"
	CycleResultStale    CycleResult = "stale"
)

// UpstreamEndpoint names the two OpenWeatherMap resources the fetchers call.
type UpstreamEndpoint string

const (
	EndpointCurrentWeather UpstreamEndpoint = "weather"
	EndpointForecast       UpstreamEndpoint = "forecast"
)
