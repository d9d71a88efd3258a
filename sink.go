package astar

import (
	"log/slog"
	"time"

	"github.com/pdrpinto/teleport-astar/geom"
)

// Summary describes one finished search.
type Summary struct {
	RunID         string
	Outcome       Outcome
	NodesExplored int // hubs discovered
	Expansions    int // hubs extracted from the frontier
	OracleCalls   int
	PathLength    int
	Elapsed       time.Duration
}

// ElapsedMillis is Elapsed in whole milliseconds.
func (s Summary) ElapsedMillis() int64 { return s.Elapsed.Milliseconds() }

// Sink receives search telemetry. Visit is called with every extracted
// cell, Done once per search.
type Sink interface {
	Visit(cell geom.CellKey)
	Done(summary Summary)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Visit(geom.CellKey) {}
func (NopSink) Done(Summary)       {}

// LogSink writes telemetry to a slog logger.
type LogSink struct {
	Logger *slog.Logger
	// Visits logs every extracted cell at debug level.
	Visits bool
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s LogSink) Visit(cell geom.CellKey) {
	if s.Visits {
		s.logger().Debug("visit", "x", cell.X, "y", cell.Y, "z", cell.Z)
	}
}

func (s LogSink) Done(summary Summary) {
	s.logger().Info("Done calculating path",
		"run", summary.RunID,
		"outcome", summary.Outcome.String(),
		"searched", summary.NodesExplored,
		"expansions", summary.Expansions,
		"path_length", summary.PathLength,
		"took_ms", summary.ElapsedMillis(),
	)
}

// MultiSink fans telemetry out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Visit(cell geom.CellKey) {
	for _, s := range m {
		s.Visit(cell)
	}
}

func (m MultiSink) Done(summary Summary) {
	for _, s := range m {
		s.Done(summary)
	}
}
