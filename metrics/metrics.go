// Package metrics exports search telemetry to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	astar "github.com/pdrpinto/teleport-astar"
	"github.com/pdrpinto/teleport-astar/geom"
)

// Sink is an astar.Sink backed by Prometheus collectors.
type Sink struct {
	searches   *prometheus.CounterVec
	duration   prometheus.Histogram
	explored   prometheus.Histogram
	expansions prometheus.Histogram
	pathLength prometheus.Histogram
	visits     prometheus.Counter
}

// NewSink registers the search collectors with reg. Passing nil uses the
// default registerer.
func NewSink(reg prometheus.Registerer) *Sink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Sink{
		// Outcome of each search, labeled succeeded / timed_out / exhausted / cancelled.
		searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teleport_astar_searches_total",
				Help: "Total number of searches by outcome",
			},
			[]string{"outcome"},
		),
		// Buckets run from sub-millisecond searches up to past the default one second budget.
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "teleport_astar_search_duration_seconds",
			Help:    "Wall-clock duration of searches in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
		explored: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "teleport_astar_nodes_explored",
			Help:    "Hubs discovered per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		expansions: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "teleport_astar_expansions",
			Help:    "Hubs extracted from the frontier per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		pathLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "teleport_astar_path_length",
			Help:    "Positions in returned paths",
			Buckets: prometheus.LinearBuckets(1, 2, 12),
		}),
		visits: factory.NewCounter(prometheus.CounterOpts{
			Name: "teleport_astar_visits_total",
			Help: "Cells extracted from the frontier across all searches",
		}),
	}
}

// Visit implements astar.Sink.
func (s *Sink) Visit(geom.CellKey) { s.visits.Inc() }

// Done implements astar.Sink.
func (s *Sink) Done(summary astar.Summary) {
	s.searches.WithLabelValues(summary.Outcome.String()).Inc()
	s.duration.Observe(summary.Elapsed.Seconds())
	s.explored.Observe(float64(summary.NodesExplored))
	s.expansions.Observe(float64(summary.Expansions))
	if summary.PathLength > 0 {
		s.pathLength.Observe(float64(summary.PathLength))
	}
}
