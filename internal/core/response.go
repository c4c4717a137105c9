package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"weatherlookup/internal/types"
)

// maxRequestBodySize caps JSON request bodies. A query is at most a few
// hundred bytes.
const maxRequestBodySize = 64 << 10

// APIResponse is the envelope for successful JSON responses.
type APIResponse struct {
	Data any `json:"data"`
}

// APIErrorResponse is the envelope for error responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the client-visible part of an AppError.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

// JSON marshals data and writes it with status. A marshalling failure is
// reported as a 500 envelope instead.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(data)
	if err != nil {
		types.LoggerFromContext(r.Context(), slog.Default()).ErrorContext(r.Context(), "response marshal failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = writeJSON(w, internalErrorResponse(r))
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK writes data inside an APIResponse with 200.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusOK, APIResponse{Data: data})
}

// Error writes err as an APIErrorResponse. An AppError anywhere in the chain
// supplies the code, message, details and status; anything else becomes an
// opaque 500. Wrapped causes are never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		types.LoggerFromContext(r.Context(), slog.Default()).ErrorContext(r.Context(), "unhandled error", "error", err)
		JSON(w, r, http.StatusInternalServerError, internalErrorResponse(r))
		return
	}

	JSON(w, r, appErr.HTTPStatus(), APIErrorResponse{
		Error: ErrorDetail{
			Code:      string(appErr.Code),
			Message:   appErr.Message,
			Details:   appErr.Details,
			RequestID: types.GetRequestID(r.Context()),
		},
	})
}

func internalErrorResponse(r *http.Request) APIErrorResponse {
	return APIErrorResponse{
		Error: ErrorDetail{
			Code:      string(types.ErrCodeInternalUnexpected),
			Message:   "an unexpected error occurred",
			RequestID: types.GetRequestID(r.Context()),
		},
	}
}

// DecodeJSON decodes a single JSON object from the request body into dst.
// Bodies over maxRequestBodySize, unknown fields, trailing values and
// malformed input all yield a validation_invalid_json AppError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return types.NewAppError(types.ErrCodeValidationInvalidJSON, "request body must contain a single JSON object", nil)
	}
	return nil
}

// mapDecodeError turns a json.Decoder error into a validation AppError with
// a message the client can act on.
func mapDecodeError(err error) *types.AppError {
	var (
		maxBytesErr  *http.MaxBytesError
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		code         = types.ErrCodeValidationInvalidJSON
		unknownField = "json: unknown field "
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return types.NewAppError(code, "request body is too large", err)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return types.NewAppError(code, "malformed JSON in request body", err)
	case errors.As(err, &typeErr):
		return types.NewAppErrorWithDetails(code, "invalid value for field", err, map[string]any{
			"field":    typeErr.Field,
			"expected": typeErr.Type.String(),
		})
	case strings.HasPrefix(err.Error(), unknownField):
		return types.NewAppError(code, "unknown field in request body: "+strings.TrimPrefix(err.Error(), unknownField), err)
	case errors.Is(err, io.EOF):
		return types.NewAppError(code, "request body must not be empty", err)
	default:
		return types.NewAppError(code, "invalid JSON in request body", err)
	}
}
