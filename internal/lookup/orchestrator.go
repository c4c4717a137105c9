// Package lookup owns the fetch-cycle state machine.
//
// An Orchestrator holds exactly one types.FetchState and replaces it as a
// whole value on every transition: Idle → Loading → {Success, Failed}. A
// cycle fetches current conditions and the forecast for one query, reduces
// the forecast to midday entries and commits both together, or commits a
// failure that clears both.
//
// Overlapping cycles are resolved last-write-wins. Each Begin bumps a
// generation counter and cancels the previous cycle; a cycle whose
// generation is no longer current when it finishes is discarded.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"weatherlookup/internal/forecast"
	"weatherlookup/internal/types"
)

const (
	// DefaultCity is queried once at startup by Bootstrap.
	DefaultCity = "Chennai"

	// DefaultCycleTimeout bounds one full cycle, both fetches included.
	DefaultCycleTimeout = 15 * time.Second
)

// WeatherSource is the upstream the orchestrator fetches from.
// openweather.Client implements it.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, query types.LocationQuery) (*types.CurrentConditions, error)
	Forecast(ctx context.Context, query types.LocationQuery) ([]types.ForecastPoint, error)
}

// Metrics records the outcome and latency of finished cycles.
type Metrics interface {
	RecordCycle(ctx context.Context, result types.CycleResult, latency time.Duration)
}

// TransitionHook observes every committed state. Hooks run while the state
// lock is held, in commit order, and must not call back into the
// Orchestrator.
type TransitionHook func(state types.FetchState)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the cycle metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the clock used for latency measurement.
func WithClock(c types.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithConcurrentFetch selects whether the two fetches of a cycle run in
// parallel (the default) or one after the other, current weather first.
func WithConcurrentFetch(concurrent bool) Option {
	return func(o *Orchestrator) { o.concurrent = concurrent }
}

// WithCycleTimeout bounds each cycle. Non-positive values are ignored.
func WithCycleTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.cycleTimeout = d
		}
	}
}

// WithDefaultCity sets the query Bootstrap submits.
func WithDefaultCity(city string) Option {
	return func(o *Orchestrator) {
		if city != "" {
			o.defaultCity = city
		}
	}
}

// WithTransitionHook registers a hook. Multiple hooks run in registration
// order.
func WithTransitionHook(h TransitionHook) Option {
	return func(o *Orchestrator) {
		if h != nil {
			o.hooks = append(o.hooks, h)
		}
	}
}

// Orchestrator is the single owner of the lookup state.
type Orchestrator struct {
	source       WeatherSource
	logger       *slog.Logger
	metrics      Metrics
	clock        types.Clock
	concurrent   bool
	cycleTimeout time.Duration
	defaultCity  string
	hooks        []TransitionHook

	mu         sync.Mutex
	state      types.FetchState
	generation uint64
	abort      context.CancelFunc
}

// NewOrchestrator creates an Orchestrator in the Idle state.
func NewOrchestrator(source WeatherSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:       source,
		logger:       slog.Default(),
		clock:        types.RealClock{},
		concurrent:   true,
		cycleTimeout: DefaultCycleTimeout,
		defaultCity:  DefaultCity,
		state:        types.IdleState(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() types.FetchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// DefaultCity returns the query Bootstrap submits.
func (o *Orchestrator) DefaultCity() string {
	return o.defaultCity
}

// Cycle is one fetch attempt started by Begin. Run executes it.
type Cycle struct {
	o          *Orchestrator
	id         string
	generation uint64
	query      types.LocationQuery

	// aborted is cancelled when a newer cycle begins.
	aborted context.Context
	ran     atomic.Bool
	done    chan struct{}
}

// ID returns the cycle's correlation ID.
func (c *Cycle) ID() string { return c.id }

// Query returns the normalized query the cycle fetches.
func (c *Cycle) Query() types.LocationQuery { return c.query }

// Done is closed once Run has returned.
func (c *Cycle) Done() <-chan struct{} { return c.done }

// Begin normalizes raw and, if it is non-empty, synchronously transitions to
// Loading and returns the cycle to run. The previous report is retained but
// hidden; any in-flight cycle is cancelled. Blank input returns a validation
// error and leaves the state untouched.
func (o *Orchestrator) Begin(raw string) (*Cycle, error) {
	query, err := NormalizeQuery(raw)
	if err != nil {
		return nil, err
	}

	aborted, abort := context.WithCancel(context.Background())

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.abort != nil {
		o.abort()
	}
	o.abort = abort
	o.generation++

	previous, ok := o.state.Retained()
	var prev *types.Report
	if ok {
		prev = &previous
	}
	o.setLocked(types.LoadingState(query, prev))

	return &Cycle{
		o:          o,
		id:         uuid.NewString(),
		generation: o.generation,
		query:      query,
		aborted:    aborted,
		done:       make(chan struct{}),
	}, nil
}

// Run fetches, reduces and commits. It returns the state current after the
// commit attempt, which is a newer cycle's Loading state if this one was
// superseded. The cycle does not stop when ctx is cancelled; it is bounded
// by the cycle timeout and aborted only by a newer cycle. Values carried by
// ctx (request ID, logger) are kept. Calling Run twice is a no-op.
func (c *Cycle) Run(ctx context.Context) types.FetchState {
	o := c.o
	if !c.ran.CompareAndSwap(false, true) {
		<-c.done
		return o.State()
	}
	defer close(c.done)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cycleTimeout)
	defer cancel()
	stop := context.AfterFunc(c.aborted, cancel)
	defer stop()

	logger := types.LoggerFromContext(ctx, o.logger).With(
		"cycle_id", c.id,
		"generation", c.generation,
		"query", c.query.String(),
	)

	start := o.clock.Now()
	report, err := o.fetch(types.WithLogger(runCtx, logger), c.query)
	latency := o.clock.Now().Sub(start)

	var next types.FetchState
	result := types.CycleResultSuccess
	if err != nil {
		reason := types.ReasonFor(err)
		next = types.FailedState(c.query, reason)
		result = types.CycleResult(reason)
	} else {
		next = types.SuccessState(c.query, report)
	}

	if !o.commit(c.generation, next) {
		logger.InfoContext(ctx, "discarding result of superseded cycle",
			"result", string(result),
			"duration", latency,
		)
		o.recordCycle(ctx, types.CycleResultStale, latency)
		return o.State()
	}

	if err != nil {
		logger.WarnContext(ctx, "lookup cycle failed",
			"reason", string(next.Reason()),
			"code", string(types.CodeOf(err)),
			"duration", latency,
			"error", err,
		)
	} else {
		logger.InfoContext(ctx, "lookup cycle succeeded",
			"city", report.Current.Name,
			"forecast_days", len(report.Forecast),
			"duration", latency,
		)
	}
	o.recordCycle(ctx, result, latency)
	return next
}

// Submit begins a cycle for raw and runs it to completion.
func (o *Orchestrator) Submit(ctx context.Context, raw string) (types.FetchState, error) {
	cycle, err := o.Begin(raw)
	if err != nil {
		return o.State(), err
	}
	return cycle.Run(ctx), nil
}

// BeginRefresh begins a cycle for the location currently displayed, named
// as the upstream reported it. It is only valid in Success.
func (o *Orchestrator) BeginRefresh() (*Cycle, error) {
	current := o.State()
	report, ok := current.Visible()
	if !ok {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeConflictNothingToRefresh,
			"no weather report is displayed",
			nil,
			map[string]any{"status": string(current.Status())},
		)
	}
	name := report.Current.Name
	if name == "" {
		name = current.Query().String()
	}
	return o.Begin(name)
}

// Refresh re-runs the cycle for the location currently displayed.
func (o *Orchestrator) Refresh(ctx context.Context) (types.FetchState, error) {
	cycle, err := o.BeginRefresh()
	if err != nil {
		return o.State(), err
	}
	return cycle.Run(ctx), nil
}

// Bootstrap begins a cycle for the default city and runs it in the
// background. The returned cycle can be waited on with Done.
func (o *Orchestrator) Bootstrap(ctx context.Context) (*Cycle, error) {
	cycle, err := o.Begin(o.defaultCity)
	if err != nil {
		return nil, fmt.Errorf("bootstrap with default city %q: %w", o.defaultCity, err)
	}
	go cycle.Run(ctx)
	return cycle, nil
}

// fetch issues both upstream calls and joins them. Either failure aborts the
// cycle; when both fail the current-weather error is reported.
func (o *Orchestrator) fetch(ctx context.Context, query types.LocationQuery) (types.Report, error) {
	var (
		current           *types.CurrentConditions
		points            []types.ForecastPoint
		currentErr, fcErr error
	)

	if o.concurrent {
		var g errgroup.Group
		g.Go(func() error {
			current, currentErr = o.source.CurrentWeather(ctx, query)
			return currentErr
		})
		g.Go(func() error {
			points, fcErr = o.source.Forecast(ctx, query)
			return fcErr
		})
		_ = g.Wait()
	} else {
		current, currentErr = o.source.CurrentWeather(ctx, query)
		if currentErr == nil {
			points, fcErr = o.source.Forecast(ctx, query)
		}
	}

	if currentErr != nil {
		return types.Report{}, fmt.Errorf("fetching current weather: %w", currentErr)
	}
	if fcErr != nil {
		return types.Report{}, fmt.Errorf("fetching forecast: %w", fcErr)
	}
	if current == nil {
		return types.Report{}, types.NewAppError(types.ErrCodeUpstreamMalformedResponse, "empty current weather response", nil)
	}
	return types.Report{
		Current:  *current,
		Forecast: forecast.Reduce(points),
	}, nil
}

// commit installs next if generation is still current.
func (o *Orchestrator) commit(generation uint64, next types.FetchState) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if generation != o.generation {
		return false
	}
	o.setLocked(next)
	return true
}

func (o *Orchestrator) setLocked(next types.FetchState) {
	o.state = next
	for _, h := range o.hooks {
		h(next)
	}
}

func (o *Orchestrator) recordCycle(ctx context.Context, result types.CycleResult, latency time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordCycle(ctx, result, latency)
	}
}
