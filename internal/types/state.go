package types

import "encoding/json"

// FetchState is the single tagged union that drives what the page shows:
// a spinner (Loading), a banner (Failed), the results (Success) or nothing
// (Idle). Fields are unexported so that only the constructors below can
// build a value, which rules out combinations such as a failure that still
// carries results.
type FetchState struct {
	status FetchStatus
	reason FailureReason
	query  LocationQuery

	// report is the installed report in Success. In Loading it is the report
	// of the previous successful cycle, kept for Refresh but never shown.
	report *Report
}

// IdleState is the state before any query was submitted.
func IdleState() FetchState {
	return FetchState{status: StatusIdle}
}

// LoadingState starts a cycle for query. The previous report, if any, is
// retained but hidden until the cycle resolves.
func LoadingState(query LocationQuery, previous *Report) FetchState {
	return FetchState{status: StatusLoading, query: query, report: previous}
}

// SuccessState installs a freshly fetched report.
func SuccessState(query LocationQuery, report Report) FetchState {
	return FetchState{status: StatusSuccess, query: query, report: &report}
}

// FailedState clears any report and records why the cycle failed.
func FailedState(query LocationQuery, reason FailureReason) FetchState {
	if reason == "" {
		reason = ReasonGeneric
	}
	return FetchState{status: StatusFailed, query: query, reason: reason}
}

// Status returns the lifecycle status.
func (s FetchState) Status() FetchStatus {
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}

// Reason returns the failure reason; empty unless Failed.
func (s FetchState) Reason() FailureReason {
	return s.reason
}

// Query returns the query of the current or last cycle.
func (s FetchState) Query() LocationQuery {
	return s.query
}

// IsLoading reports whether a cycle is in flight.
func (s FetchState) IsLoading() bool {
	return s.status == StatusLoading
}

// Visible returns the report to render. Results are shown only in Success.
func (s FetchState) Visible() (Report, bool) {
	if s.status != StatusSuccess || s.report == nil {
		return Report{}, false
	}
	return *s.report, true
}

// Retained returns the last successful report, including the one hidden
// behind a Loading state.
func (s FetchState) Retained() (Report, bool) {
	if s.report == nil {
		return Report{}, false
	}
	return *s.report, true
}

// fetchStateJSON is the wire form of FetchState.
type fetchStateJSON struct {
	Status  FetchStatus   `json:"status"`
	Reason  FailureReason `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
	Query   string        `json:"query,omitempty"`
	Report  *Report       `json:"report,omitempty"`
}

// MarshalJSON encodes the state with the same visibility rules as Visible.
func (s FetchState) MarshalJSON() ([]byte, error) {
	out := fetchStateJSON{
		Status:  s.Status(),
		Reason:  s.reason,
		Message: s.reason.Message(),
		Query:   string(s.query),
	}
	if r, ok := s.Visible(); ok {
		out.Report = &r
	}
	return json.Marshal(out)
}
