package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherlookup/internal/core"
	"weatherlookup/internal/lookup"
	"weatherlookup/internal/present"
	"weatherlookup/internal/types"
)

// maxFormSize bounds the search form body.
const maxFormSize = 4 << 10

// ViewRenderer draws a present.View. *present.Renderer implements it.
type ViewRenderer interface {
	RenderHTML(w io.Writer, v present.View) error
	RenderText(w io.Writer, v present.View) error
}

// PageOption configures a PageHandler.
type PageOption func(*PageHandler)

// WithSyncCycles makes form posts wait for the cycle before redirecting.
// By default the cycle runs in the background and the redirected page shows
// the spinner until it lands.
func WithSyncCycles() PageOption {
	return func(h *PageHandler) { h.sync = true }
}

// PageHandler serves the HTML page and its form posts.
type PageHandler struct {
	lookup    Lookup
	formatter *present.Formatter
	renderer  ViewRenderer
	logger    *slog.Logger
	sync      bool
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(l Lookup, f *present.Formatter, r ViewRenderer, logger *slog.Logger, opts ...PageOption) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &PageHandler{lookup: l, formatter: f, renderer: r, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the page routes at the root.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandlePage)
	r.Get("/report.txt", h.HandleText)
	r.Post("/search", h.HandleSearch)
	r.Post("/refresh", h.HandleRefresh)
}

// HandlePage renders the current state as HTML. The page is rendered into a
// buffer first so a template failure still produces a clean error response.
func (h *PageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.RenderHTML(&buf, h.formatter.View(h.lookup.State())); err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// HandleText renders the current state as the plain-text report.
func (h *PageHandler) HandleText(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.RenderText(&buf, h.formatter.View(h.lookup.State())); err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// HandleSearch handles the search form. Blank input leaves the state alone;
// either way the browser is sent back to the page.
func (h *PageHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidForm, "malformed form body", err))
		return
	}

	cycle, err := h.lookup.Begin(r.PostFormValue("city"))
	if err != nil {
		if types.CodeOf(err) != types.ErrCodeValidationEmptyQuery {
			core.Error(w, r, err)
			return
		}
		h.backToPage(w, r)
		return
	}
	h.run(r.Context(), cycle)
	h.backToPage(w, r)
}

// HandleRefresh handles the refresh button. With nothing displayed it is a
// no-op redirect, since the button is only rendered in Success.
func (h *PageHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.lookup.BeginRefresh()
	if err != nil {
		types.LoggerFromContext(r.Context(), h.logger).InfoContext(r.Context(), "refresh ignored", "error", err)
		h.backToPage(w, r)
		return
	}
	h.run(r.Context(), cycle)
	h.backToPage(w, r)
}

func (h *PageHandler) run(ctx context.Context, cycle *lookup.Cycle) {
	if h.sync {
		cycle.Run(ctx)
		return
	}
	go cycle.Run(ctx)
}

// backToPage answers a form post with 303 so a reload does not resubmit.
func (h *PageHandler) backToPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
