package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. The prefix decides the HTTP status (see HTTPStatus).
const (
	// Validation (400)
	ErrCodeValidationEmptyQuery   ErrorCode = "validation_empty_query"
	ErrCodeValidationQueryTooLong ErrorCode = "validation_query_too_long"
	ErrCodeValidationInvalidJSON  ErrorCode = "validation_invalid_json"
	ErrCodeValidationInvalidForm  ErrorCode = "validation_invalid_form"

	// Not Found (404)
	ErrCodeNotFoundCity ErrorCode = "not_found_city"

	// Conflict (409)
	ErrCodeConflictNothingToRefresh ErrorCode = "conflict_nothing_to_refresh"

	// Internal/Upstream (500/502)
	ErrCodeInternalUnexpected        ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamUnavailable       ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamStatus            ErrorCode = "upstream_status_error"
	ErrCodeUpstreamMalformedResponse ErrorCode = "upstream_malformed_response"
	ErrCodeUpstreamCircuitOpen       ErrorCode = "upstream_circuit_open"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case s == string(ErrCodeUpstreamCircuitOpen):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Handlers and services
// express failures as AppError so that HTTP mapping and the lookup failure
// taxonomy can be derived from the code alone.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf returns the ErrorCode of the first AppError in err's chain, or the
// empty code when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ReasonFor collapses any fetch error into the two-valued failure taxonomy.
// Only a missing city is NotFound; transport, status, decode and cancellation
// failures are all Generic.
func ReasonFor(err error) FailureReason {
	if CodeOf(err) == ErrCodeNotFoundCity {
		return ReasonNotFound
	}
	return ReasonGeneric
}
