package astar

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pdrpinto/teleport-astar/geom"
	"github.com/pdrpinto/teleport-astar/internal"
)

// reset clears the previous run and seeds the frontier with the start hub.
func (s *search) reset() {
	s.store.Reset()
	s.open.Reset()
	s.path = nil
	s.expansions = 0
	s.oracleCalls = 0
	s.outcome = Running

	root := s.store.Put(geom.Discretize(s.start), internal.Hub{
		Location:   s.start,
		Parent:     internal.NoParent,
		Heuristic:  geom.Heuristic(s.start, s.goal),
		QueueIndex: -1,
	})
	s.open.Push(root)
}

func (s *search) reached(p geom.Position) bool {
	return geom.GoalTest(p, s.goal, s.toleranceSquared)
}

// step extracts the best hub and expands it. It returns the extracted
// cell; s.outcome leaves Running once the search is over.
func (s *search) step() geom.CellKey {
	if s.open.Len() == 0 {
		s.outcome = Exhausted
		return geom.CellKey{}
	}

	idx := s.open.PopMin()
	s.expansions++
	hub := s.store.At(idx)
	location := hub.Location
	ceiled := geom.Ceil(location)
	cell := geom.Discretize(ceiled)
	s.options.Sink.Visit(cell)

	// Goal check
	if s.reached(location) {
		s.path = s.store.Reconstruct(idx)
		s.outcome = Succeeded
		return cell
	}
	if s.options.ClosedSet {
		hub.Closed = true
	}

	s.oracleCalls++
	candidates := s.oracle.Reachable(r3.Add(ceiled, s.options.EyeOffset), s.options.Radius)
	for _, candidate := range candidates {
		if s.relax(idx, candidate) {
			s.outcome = Succeeded
			return cell
		}
	}

	if s.open.Len() == 0 {
		s.outcome = Exhausted
	}
	return cell
}

// relax offers the hop parent -> candidate. It returns true when the
// candidate satisfies the goal, in which case s.path is set.
func (s *search) relax(parent int32, candidate geom.CellKey) bool {
	location := candidate.Position()
	from := s.store.At(parent)
	edgeCost := geom.Distance(from.Location, location)
	cumulative := edgeCost + from.Cumulative

	if s.reached(location) {
		s.path = s.store.Reconstruct(parent, location)
		return true
	}

	key := geom.Discretize(location)
	existing, ok := s.store.Get(key)
	if !ok {
		idx := s.store.Put(key, internal.Hub{
			Location:   location,
			Parent:     parent,
			Heuristic:  geom.Heuristic(location, s.goal),
			EdgeCost:   edgeCost,
			Cumulative: cumulative,
			QueueIndex: -1,
		})
		s.open.Push(idx)
		return false
	}

	if s.options.ClosedSet && s.store.At(existing).Closed {
		return false
	}
	// Found a cheaper route to a known hub
	if s.store.Lower(existing, location, parent, edgeCost, cumulative) {
		if s.options.RefreshHeuristic {
			s.store.At(existing).Heuristic = geom.Heuristic(location, s.goal)
		}
		s.open.Reprioritize(existing)
	}
	return false
}

// StepSnapshot exposes the per-iteration state of the search
type StepSnapshot struct {
	Current    geom.CellKey
	Open       int
	Discovered int
	Done       bool
	Outcome    Outcome
	Path       []geom.Position
	StepIndex  int
}

// Stepper advances a search one extraction at a time, for visualisers and
// debugging. It ignores the wall-clock budget; the caller decides when to
// stop stepping.
type Stepper struct {
	search    *search
	runID     string
	stepCount int
	reported  bool
}

// NewStepper creates a stepper with the same expansion logic as Pathfinder.
func NewStepper(
	start geom.Position,
	end geom.Position,
	goalToleranceSquared float64,
	oracle Oracle,
	options ...Option,
) *Stepper {
	s := &Stepper{
		search: newSearch(start, end, goalToleranceSquared, oracle, buildOptions(options)),
		runID:  uuid.NewString(),
	}
	s.search.reset()
	return s
}

// Step advances the search by one extraction and returns a snapshot.
// Once the search is done, Step keeps returning the final snapshot.
func (s *Stepper) Step() StepSnapshot {
	var current geom.CellKey
	if s.search.outcome == Running {
		s.stepCount++
		current = s.search.step()
	}
	done := s.search.outcome != Running
	if done && !s.reported {
		s.reported = true
		s.search.options.Sink.Done(s.search.summary(s.runID, 0))
	}
	return StepSnapshot{
		Current:    current,
		Open:       s.search.open.Len(),
		Discovered: s.search.store.Len(),
		Done:       done,
		Outcome:    s.search.outcome,
		Path:       s.search.path,
		StepIndex:  s.stepCount,
	}
}

// Discovered calls fn for every hub found so far, in no particular order.
func (s *Stepper) Discovered(fn func(cell geom.CellKey, location geom.Position, queued bool)) {
	s.search.store.Each(func(cell geom.CellKey, hub *internal.Hub) {
		fn(cell, hub.Location, hub.QueueIndex >= 0)
	})
}
