package astar

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdrpinto/teleport-astar/geom"
	"github.com/pdrpinto/teleport-astar/internal"
)

const (
	// DefaultBudget bounds the wall-clock time of one Compute.
	DefaultBudget = 1000 * time.Millisecond
	// DefaultRadius is how far a single hop may reach.
	DefaultRadius = 16.0
	// DefaultMaxLoops and DefaultDepth are the reserved Compute arguments.
	DefaultMaxLoops = 2000
	DefaultDepth    = 1
)

// DefaultEyeOffset lifts the ceiled hub cell to eye height plus one block
// before the oracle is queried.
var DefaultEyeOffset = geom.Position{X: 0.5, Y: 1.62 - 0.08 + 1, Z: 0.5}

// Outcome is the state of a search.
type Outcome int

const (
	// Idle is a search that has not been computed yet.
	Idle Outcome = iota
	// Running is a search that is still expanding hubs.
	Running
	// Succeeded means a hub or candidate passed the goal test.
	Succeeded
	// TimedOut means the wall-clock budget elapsed first.
	TimedOut
	// Exhausted means the frontier emptied without reaching the goal.
	Exhausted
	// Cancelled means the context was done before the search ended.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a Compute.
type Result struct {
	Summary
	Path []geom.Position
}

// Found reports whether a path was produced.
func (r Result) Found() bool { return len(r.Path) > 0 }

// Options defines parameters for the search.
type Options struct {
	Budget    time.Duration
	Radius    float64
	EyeOffset geom.Position
	Frontier  FrontierKind
	// ClosedSet stops settled hubs from being expanded or re-promoted again.
	ClosedSet bool
	// RefreshHeuristic recomputes the heuristic when a hub is re-promoted.
	RefreshHeuristic bool
	Sink             Sink
	Logger           *slog.Logger
	Clock            func() time.Time
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithBudget sets the wall-clock budget of Compute.
func WithBudget(budget time.Duration) Option {
	return func(options *Options) { options.Budget = budget }
}

// WithRadius sets the hop radius handed to the oracle.
func WithRadius(radius float64) Option {
	return func(options *Options) { options.Radius = radius }
}

// WithEyeOffset sets the offset added to a ceiled hub cell to form the
// oracle origin.
func WithEyeOffset(offset geom.Position) Option {
	return func(options *Options) { options.EyeOffset = offset }
}

// WithFrontier picks the open set implementation.
func WithFrontier(kind FrontierKind) Option {
	return func(options *Options) { options.Frontier = kind }
}

// WithClosedSet enables the stricter variant that never re-expands a hub.
func WithClosedSet(enabled bool) Option {
	return func(options *Options) { options.ClosedSet = enabled }
}

// WithHeuristicRefresh recomputes a hub's heuristic when it is re-promoted
// to a new location. By default the heuristic from creation is kept.
// Oracle candidates are block corners, so a re-promoted hub usually keeps
// its location and the refreshed value is unchanged.
func WithHeuristicRefresh(enabled bool) Option {
	return func(options *Options) { options.RefreshHeuristic = enabled }
}

// WithSink sets the telemetry sink.
func WithSink(sink Sink) Option {
	return func(options *Options) { options.Sink = sink }
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(options *Options) { options.Logger = logger }
}

// WithClock replaces time.Now for budget accounting.
func WithClock(now func() time.Time) Option {
	return func(options *Options) { options.Clock = now }
}

func buildOptions(options []Option) Options {
	searchOptions := Options{
		Budget:    DefaultBudget,
		Radius:    DefaultRadius,
		EyeOffset: DefaultEyeOffset,
		Frontier:  FrontierHeap,
		Sink:      NopSink{},
		Logger:    slog.Default(),
		Clock:     time.Now,
	}
	for _, option := range options {
		option(&searchOptions)
	}
	if searchOptions.Sink == nil {
		searchOptions.Sink = NopSink{}
	}
	if searchOptions.Logger == nil {
		searchOptions.Logger = slog.Default()
	}
	if searchOptions.Clock == nil {
		searchOptions.Clock = time.Now
	}
	return searchOptions
}

// Pathfinder searches for a hop sequence from start to end.
//
// A Pathfinder is not safe for concurrent use: every Compute clears the
// state of the previous one.
type Pathfinder struct {
	search *search
	path   []geom.Position
}

// NewPathfinder prepares a search. Start and end are floored to their
// block corners. A zero goalToleranceSquared requires reaching the goal
// cell exactly.
func NewPathfinder(
	start geom.Position,
	end geom.Position,
	goalToleranceSquared float64,
	oracle Oracle,
	options ...Option,
) *Pathfinder {
	return &Pathfinder{
		search: newSearch(start, end, goalToleranceSquared, oracle, buildOptions(options)),
	}
}

// Path returns the path found by the last Compute. It is empty when no
// goal was reached.
func (p *Pathfinder) Path() []geom.Position { return p.path }

// Compute runs the search with the default reserved arguments.
func (p *Pathfinder) Compute(ctx context.Context) Result {
	return p.ComputeLoops(ctx, DefaultMaxLoops, DefaultDepth)
}

// ComputeLoops runs the search until the goal is reached, the frontier
// empties, the budget elapses or ctx is done. maxLoops and depth are
// accepted for compatibility; termination is governed by the budget.
func (p *Pathfinder) ComputeLoops(ctx context.Context, maxLoops, depth int) Result {
	options := p.search.options
	startTime := options.Clock()
	runID := uuid.NewString()
	logger := options.Logger.With("run", runID)
	logger.Debug("search started",
		"start", p.search.start,
		"goal", p.search.goal,
		"budget", options.Budget,
		"frontier", options.Frontier.String(),
		"max_loops", maxLoops,
		"depth", depth,
	)

	p.path = nil
	p.search.reset()

	// --- Orchestrator loop ---
	for p.search.outcome == Running {
		// whole milliseconds, so a zero budget still runs the first expansion
		if options.Clock().Sub(startTime).Milliseconds() > options.Budget.Milliseconds() {
			p.search.outcome = TimedOut
			break
		}
		if err := ctx.Err(); err != nil {
			logger.Debug("search cancelled", "error", err)
			p.search.outcome = Cancelled
			break
		}
		p.search.step()
	}

	if p.search.outcome == Succeeded {
		p.path = p.search.path
	}
	summary := p.search.summary(runID, options.Clock().Sub(startTime))
	options.Sink.Done(summary)
	logger.Debug("search finished",
		"outcome", summary.Outcome.String(),
		"searched", summary.NodesExplored,
		"expansions", summary.Expansions,
		"oracle_calls", summary.OracleCalls,
		"took_ms", summary.ElapsedMillis(),
	)
	return Result{Summary: summary, Path: p.path}
}

// search is the state of one run, shared by Pathfinder and Stepper.
type search struct {
	start            geom.Position
	goal             geom.Position
	toleranceSquared float64
	oracle           Oracle
	options          Options

	store *internal.Store
	open  frontier

	path        []geom.Position
	outcome     Outcome
	expansions  int
	oracleCalls int
}

func newSearch(start, end geom.Position, toleranceSquared float64, oracle Oracle, options Options) *search {
	store := internal.NewStore(256)
	return &search{
		start:            geom.Floor(start),
		goal:             geom.Floor(end),
		toleranceSquared: toleranceSquared,
		oracle:           oracle,
		options:          options,
		store:            store,
		open:             newFrontier(options.Frontier, store),
		outcome:          Idle,
	}
}

func (s *search) summary(runID string, elapsed time.Duration) Summary {
	return Summary{
		RunID:         runID,
		Outcome:       s.outcome,
		NodesExplored: s.store.Len(),
		Expansions:    s.expansions,
		OracleCalls:   s.oracleCalls,
		PathLength:    len(s.path),
		Elapsed:       elapsed,
	}
}
