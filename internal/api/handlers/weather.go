// Package handlers maps HTTP requests onto the lookup orchestrator: an HTML
// page with a search form, and a JSON API over the same single state.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherlookup/internal/core"
	"weatherlookup/internal/lookup"
	"weatherlookup/internal/types"
)

// maxQueryLength bounds the query accepted by the JSON API.
const maxQueryLength = 200

// Lookup is the orchestrator surface the handlers need. *lookup.Orchestrator
// implements it.
type Lookup interface {
	State() types.FetchState
	Begin(raw string) (*lookup.Cycle, error)
	BeginRefresh() (*lookup.Cycle, error)
	Submit(ctx context.Context, raw string) (types.FetchState, error)
	Refresh(ctx context.Context) (types.FetchState, error)
}

// LookupRequest is the body of POST /v1/weather.
type LookupRequest struct {
	Query string `json:"query" validate:"required,notblank,max=200"`
}

// WeatherHandler serves the JSON API.
type WeatherHandler struct {
	lookup    Lookup
	validator *core.Validator
	logger    *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(l Lookup, val *core.Validator, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{lookup: l, validator: val, logger: logger}
}

// RegisterRoutes mounts the endpoints under /weather.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Route("/weather", func(r chi.Router) {
		r.Get("/", h.HandleGetState)
		r.Post("/", h.HandleLookup)
		r.Post("/refresh", h.HandleRefresh)
	})
}

// HandleGetState handles GET /v1/weather.
func (h *WeatherHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	core.OK(w, r, h.lookup.State())
}

// HandleLookup handles POST /v1/weather. The cycle runs to completion before
// the response is written; a failed lookup is still a 200 whose state says
// Failed.
func (h *WeatherHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.validator.ValidateStruct(req)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if fe, bad := result.First("query"); bad {
		core.Error(w, r, queryError(fe))
		return
	}

	state, err := h.lookup.Submit(r.Context(), req.Query)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.OK(w, r, state)
}

// HandleRefresh handles POST /v1/weather/refresh: 409 unless a report is
// displayed.
func (h *WeatherHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.lookup.Refresh(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.OK(w, r, state)
}

func queryError(fe core.ValidationError) *types.AppError {
	if fe.Code == "max" {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationQueryTooLong, fe.Message, nil,
			map[string]any{"max": maxQueryLength})
	}
	return types.NewAppError(types.ErrCodeValidationEmptyQuery, "city name must not be empty", nil)
}
