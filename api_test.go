package astar

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/pdrpinto/teleport-astar/geom"
	"github.com/pdrpinto/teleport-astar/internal"
)

func cell(x, y, z int) geom.CellKey { return geom.CellKey{X: x, Y: y, Z: z} }

func pos(x, y, z float64) geom.Position { return geom.Position{X: x, Y: y, Z: z} }

// graphOracle serves a fixed adjacency list keyed by the origin cell.
// Tests run it with a zero eye offset so the origin is the hub cell itself.
type graphOracle struct {
	edges map[geom.CellKey][]geom.CellKey
	calls map[geom.CellKey]int
}

func newGraphOracle(edges map[geom.CellKey][]geom.CellKey) *graphOracle {
	return &graphOracle{edges: edges, calls: make(map[geom.CellKey]int)}
}

func (g *graphOracle) Reachable(origin geom.Position, radius float64) []geom.CellKey {
	key := geom.Discretize(origin)
	g.calls[key]++
	return g.edges[key]
}

func (g *graphOracle) totalCalls() int {
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPathfinder(start, end geom.Position, tol float64, oracle Oracle, options ...Option) *Pathfinder {
	base := []Option{WithEyeOffset(geom.Position{}), WithLogger(quietLogger())}
	return NewPathfinder(start, end, tol, oracle, append(base, options...)...)
}

var frontierKinds = []FrontierKind{FrontierHeap, FrontierBTree}

func assertPath(t *testing.T, got, want []geom.Position) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("path = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("path[%d] = %v, want %v (full %v)", i, got[i], want[i], got)
		}
	}
}

func TestStraightLineChain(t *testing.T) {
	for _, kind := range frontierKinds {
		t.Run(kind.String(), func(t *testing.T) {
			oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{
				cell(0, 0, 0): {cell(0, 0, 1)},
				cell(0, 0, 1): {cell(0, 0, 2)},
				cell(0, 0, 2): {cell(0, 0, 3)},
			})
			finder := newTestPathfinder(pos(0, 0, 0), pos(0, 0, 3), 0, oracle, WithFrontier(kind))
			result := finder.Compute(context.Background())

			if result.Outcome != Succeeded {
				t.Fatalf("outcome = %v", result.Outcome)
			}
			want := []geom.Position{pos(0, 0, 0), pos(0, 0, 1), pos(0, 0, 2), pos(0, 0, 3)}
			assertPath(t, result.Path, want)
			assertPath(t, finder.Path(), want)
			if result.Expansions != 3 {
				t.Errorf("Expansions = %d, want 3", result.Expansions)
			}
			// the goal cell is never stored as a hub
			if result.NodesExplored != 3 {
				t.Errorf("NodesExplored = %d, want 3", result.NodesExplored)
			}
		})
	}
}

func TestStartIsGoal(t *testing.T) {
	oracle := newGraphOracle(nil)
	finder := newTestPathfinder(pos(4, 5, 6), pos(4.5, 5.2, 6.9), 0, oracle)
	result := finder.Compute(context.Background())

	assertPath(t, result.Path, []geom.Position{pos(4, 5, 6)})
	if oracle.totalCalls() != 0 {
		t.Errorf("oracle called %d times", oracle.totalCalls())
	}
	if result.Expansions != 1 || result.NodesExplored != 1 {
		t.Errorf("Expansions = %d NodesExplored = %d, want 1/1", result.Expansions, result.NodesExplored)
	}
}

func TestStartWithinTolerance(t *testing.T) {
	finder := newTestPathfinder(pos(0, 0, 0), pos(1, 1, 0), 2, newGraphOracle(nil))
	result := finder.Compute(context.Background())
	assertPath(t, result.Path, []geom.Position{pos(0, 0, 0)})
}

func TestEmptyOracleExhausts(t *testing.T) {
	oracle := newGraphOracle(nil)
	finder := newTestPathfinder(pos(0, 0, 0), pos(0, 0, 10), 0, oracle)
	result := finder.Compute(context.Background())

	if result.Outcome != Exhausted {
		t.Fatalf("outcome = %v, want exhausted", result.Outcome)
	}
	if result.Found() || len(finder.Path()) != 0 {
		t.Fatalf("unexpected path %v", result.Path)
	}
	if result.Expansions != 1 || oracle.totalCalls() != 1 {
		t.Errorf("Expansions = %d oracle calls = %d, want 1/1", result.Expansions, oracle.totalCalls())
	}
}

func TestUnreachableGoalExhausts(t *testing.T) {
	// a closed loop that never touches the goal
	oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{
		cell(0, 0, 0): {cell(1, 0, 0), cell(0, 1, 0)},
		cell(1, 0, 0): {cell(0, 0, 0), cell(0, 1, 0)},
		cell(0, 1, 0): {cell(1, 0, 0)},
	})
	for _, kind := range frontierKinds {
		finder := newTestPathfinder(pos(0, 0, 0), pos(9, 9, 9), 0, oracle, WithFrontier(kind))
		result := finder.Compute(context.Background())
		if result.Outcome != Exhausted || result.Found() {
			t.Fatalf("%v: outcome = %v path = %v", kind, result.Outcome, result.Path)
		}
		if result.NodesExplored != 3 {
			t.Errorf("%v: NodesExplored = %d, want 3", kind, result.NodesExplored)
		}
	}
}

func TestCheaperRouteRepromotes(t *testing.T) {
	// P pops first (better F) and discovers X expensively; Q pops later
	// and offers X a cheaper route, which must end up on the path.
	s, p, q, x, g := cell(0, 0, 0), cell(0, 0, 10), cell(0, 5, 0), cell(0, 10, 0), cell(0, 0, 30)
	for _, kind := range frontierKinds {
		t.Run(kind.String(), func(t *testing.T) {
			oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{
				s: {p, q},
				p: {x},
				q: {x},
				x: {g},
			})
			finder := newTestPathfinder(s.Position(), g.Position(), 0, oracle, WithFrontier(kind))
			result := finder.Compute(context.Background())

			assertPath(t, result.Path, []geom.Position{s.Position(), q.Position(), x.Position(), g.Position()})

			idx, ok := finder.search.store.Get(x)
			if !ok {
				t.Fatal("x not stored")
			}
			hub := finder.search.store.At(idx)
			if hub.Cumulative != 10 {
				t.Errorf("x cumulative = %v, want 10", hub.Cumulative)
			}
			if hub.EdgeCost != 5 {
				t.Errorf("x edge cost = %v, want 5", hub.EdgeCost)
			}
			parent := finder.search.store.At(hub.Parent)
			if geom.Discretize(parent.Location) != q {
				t.Errorf("x parent = %v, want %v", parent.Location, q)
			}
			if oracle.calls[x] != 1 {
				t.Errorf("x expanded %d times, want 1", oracle.calls[x])
			}
		})
	}
}

func TestFirstGoalCandidateWins(t *testing.T) {
	// both candidates satisfy the tolerance; emission order decides
	oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{
		cell(0, 0, 0): {cell(0, 0, 9), cell(0, 0, 10), cell(0, 0, 11)},
	})
	finder := newTestPathfinder(pos(0, 0, 0), pos(0, 0, 10), 4, oracle)
	result := finder.Compute(context.Background())
	assertPath(t, result.Path, []geom.Position{pos(0, 0, 0), pos(0, 0, 9)})
}

func TestZeroBudgetTimesOut(t *testing.T) {
	tick := time.Unix(0, 0)
	clock := func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{cell(0, 0, 0): {cell(0, 0, 1)}})
	finder := newTestPathfinder(pos(0, 0, 0), pos(0, 0, 1), 0, oracle, WithBudget(0), WithClock(clock))
	result := finder.Compute(context.Background())

	if result.Outcome != TimedOut {
		t.Fatalf("outcome = %v, want timed_out", result.Outcome)
	}
	if result.Found() || result.Expansions != 0 || oracle.totalCalls() != 0 {
		t.Fatalf("timed out search did work: %+v", result)
	}
}

func TestZeroBudgetWithRealClockTestsStart(t *testing.T) {
	for i := 0; i < 50; i++ {
		finder := newTestPathfinder(pos(2, 2, 2), pos(2, 2, 2), 0, newGraphOracle(nil), WithBudget(0))
		result := finder.Compute(context.Background())
		if result.Outcome != Succeeded {
			t.Fatalf("run %d: outcome = %v, want succeeded", i, result.Outcome)
		}
		assertPath(t, result.Path, []geom.Position{pos(2, 2, 2)})
	}
}

func TestBudgetComparedInMilliseconds(t *testing.T) {
	// the first budget check sees 300µs, below a whole millisecond, so the
	// start is still tested
	tick := time.Unix(0, 0)
	clock := func() time.Time {
		tick = tick.Add(300 * time.Microsecond)
		return tick
	}
	finder := newTestPathfinder(pos(1, 1, 1), pos(1, 1, 1), 0, newGraphOracle(nil), WithBudget(0), WithClock(clock))
	result := finder.Compute(context.Background())
	if result.Outcome != Succeeded {
		t.Fatalf("outcome = %v, want succeeded", result.Outcome)
	}
}

// endlessOracle always offers a fresh cell further from the goal.
type endlessOracle struct{}

func (endlessOracle) Reachable(origin geom.Position, radius float64) []geom.CellKey {
	k := geom.Discretize(origin)
	return []geom.CellKey{k.Add(1, 0, 0), k.Add(0, 1, 0), k.Add(0, 0, -1)}
}

func TestBudgetBoundsWallClock(t *testing.T) {
	budget := 30 * time.Millisecond
	finder := newTestPathfinder(pos(0, 0, 0), pos(-100000, 0, 0), 0, endlessOracle{}, WithBudget(budget))

	began := time.Now()
	result := finder.Compute(context.Background())
	elapsed := time.Since(began)

	if result.Outcome != TimedOut {
		t.Fatalf("outcome = %v, want timed_out", result.Outcome)
	}
	if elapsed > budget+time.Second {
		t.Fatalf("Compute took %v with a %v budget", elapsed, budget)
	}
	if result.Elapsed < budget {
		t.Errorf("reported Elapsed %v below budget %v", result.Elapsed, budget)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	finder := newTestPathfinder(pos(0, 0, 0), pos(50, 0, 0), 0, endlessOracle{})
	result := finder.Compute(ctx)
	if result.Outcome != Cancelled || result.Found() {
		t.Fatalf("outcome = %v path = %v", result.Outcome, result.Path)
	}
}

func TestComputeResetsState(t *testing.T) {
	oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{
		cell(0, 0, 0): {cell(0, 0, 1)},
		cell(0, 0, 1): {cell(0, 0, 2)},
	})
	finder := newTestPathfinder(pos(0, 0, 0), pos(0, 0, 2), 0, oracle)
	first := finder.Compute(context.Background())
	second := finder.ComputeLoops(context.Background(), 10, 3)

	assertPath(t, second.Path, first.Path)
	if first.NodesExplored != second.NodesExplored || first.Expansions != second.Expansions {
		t.Fatalf("second run saw stale state: %+v vs %+v", first.Summary, second.Summary)
	}
	if first.RunID == second.RunID || first.RunID == "" {
		t.Fatalf("run ids not unique: %q %q", first.RunID, second.RunID)
	}
}

func TestOracleOriginUsesEyeOffset(t *testing.T) {
	var origins []geom.Position
	var radii []float64
	oracle := OracleFunc(func(origin geom.Position, radius float64) []geom.CellKey {
		origins = append(origins, origin)
		radii = append(radii, radius)
		return nil
	})
	finder := NewPathfinder(pos(3.7, 4.2, -5.5), pos(40, 0, 0), 0, oracle, WithLogger(quietLogger()))
	finder.Compute(context.Background())

	if len(origins) != 1 {
		t.Fatalf("oracle called %d times", len(origins))
	}
	// start floors to (3, 4, -6); the ceiled cell is unchanged
	want := pos(3.5, 4+1.62-0.08+1, -5.5)
	if math.Abs(origins[0].X-want.X) > 1e-9 || math.Abs(origins[0].Y-want.Y) > 1e-9 || math.Abs(origins[0].Z-want.Z) > 1e-9 {
		t.Fatalf("origin = %v, want %v", origins[0], want)
	}
	if radii[0] != DefaultRadius {
		t.Fatalf("radius = %v, want %v", radii[0], DefaultRadius)
	}
}

type recordingSink struct {
	visits    []geom.CellKey
	summaries []Summary
}

func (r *recordingSink) Visit(c geom.CellKey) { r.visits = append(r.visits, c) }
func (r *recordingSink) Done(s Summary)       { r.summaries = append(r.summaries, s) }

func TestSinkReceivesVisitsAndSummary(t *testing.T) {
	sink := &recordingSink{}
	oracle := newGraphOracle(map[geom.CellKey][]geom.CellKey{
		cell(0, 0, 0): {cell(0, 0, 1)},
		cell(0, 0, 1): {cell(0, 0, 2)},
	})
	finder := newTestPathfinder(pos(0, 0, 0), pos(0, 0, 2), 0, oracle,
		WithSink(MultiSink{sink, LogSink{Logger: quietLogger(), Visits: true}}))
	result := finder.Compute(context.Background())

	wantVisits := []geom.CellKey{cell(0, 0, 0), cell(0, 0, 1)}
	if len(sink.visits) != len(wantVisits) {
		t.Fatalf("visits = %v, want %v", sink.visits, wantVisits)
	}
	for i := range wantVisits {
		if sink.visits[i] != wantVisits[i] {
			t.Errorf("visit[%d] = %v, want %v", i, sink.visits[i], wantVisits[i])
		}
	}
	if len(sink.summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(sink.summaries))
	}
	if got := sink.summaries[0]; got.Outcome != Succeeded || got.NodesExplored != result.NodesExplored || got.PathLength != 3 {
		t.Fatalf("summary = %+v", got)
	}
}

// randomGraph builds a reproducible sparse graph over a small cube.
func randomGraph(seed int64, size, degree int) map[geom.CellKey][]geom.CellKey {
	r := rand.New(rand.NewSource(seed))
	edges := make(map[geom.CellKey][]geom.CellKey)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				from := cell(x, y, z)
				for d := 0; d < degree; d++ {
					edges[from] = append(edges[from], cell(r.Intn(size), r.Intn(size), r.Intn(size)))
				}
			}
		}
	}
	return edges
}

func TestRandomGraphPathsAreValidHops(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		edges := randomGraph(seed, 6, 3)
		goal := cell(5, 5, 5)

		var reference []geom.Position
		for _, variant := range []struct {
			kind   FrontierKind
			closed bool
		}{
			{FrontierHeap, false},
			{FrontierBTree, false},
			{FrontierHeap, true},
			{FrontierBTree, true},
		} {
			oracle := newGraphOracle(edges)
			finder := newTestPathfinder(pos(0, 0, 0), goal.Position(), 0, oracle,
				WithFrontier(variant.kind), WithClosedSet(variant.closed), WithBudget(5*time.Second))
			result := finder.Compute(context.Background())

			if result.Outcome != Succeeded && result.Outcome != Exhausted {
				t.Fatalf("seed %d: outcome = %v", seed, result.Outcome)
			}
			if result.Outcome == Exhausted && result.Found() {
				t.Fatalf("seed %d: exhausted with path", seed)
			}
			for j := 0; j+1 < len(result.Path); j++ {
				from, to := geom.Discretize(result.Path[j]), geom.Discretize(result.Path[j+1])
				if !containsCell(edges[from], to) {
					t.Fatalf("seed %d: hop %v -> %v not offered by oracle", seed, from, to)
				}
			}
			if result.Found() && geom.Discretize(result.Path[len(result.Path)-1]) != goal {
				t.Fatalf("seed %d: path ends at %v", seed, result.Path[len(result.Path)-1])
			}
			assertStoredEdges(t, finder, result.Path)

			switch {
			case variant.kind == FrontierHeap && !variant.closed:
				reference = result.Path
			case !variant.closed:
				// both frontiers pop in the same order, so paths match exactly
				assertPath(t, result.Path, reference)
			case result.Found() != (len(reference) > 0):
				t.Fatalf("seed %d: closed set changed reachability", seed)
			}
		}
	}
}

// assertStoredEdges walks the parent chain of every stored hub on path and
// checks that each edge cost is the distance to its parent.
func assertStoredEdges(t *testing.T, finder *Pathfinder, path []geom.Position) {
	t.Helper()
	store := finder.search.store
	// the last position is the goal candidate, which is never stored
	for j := 0; j+1 < len(path); j++ {
		idx, ok := store.Get(geom.Discretize(path[j]))
		if !ok {
			t.Fatalf("path[%d] = %v has no hub", j, path[j])
		}
		hub := store.At(idx)
		if j == 0 {
			if hub.Parent != internal.NoParent || hub.EdgeCost != 0 {
				t.Fatalf("root hub = %+v", *hub)
			}
			continue
		}
		parent := store.At(hub.Parent)
		if parent.Location != path[j-1] {
			t.Fatalf("path[%d] parent = %v, want %v", j, parent.Location, path[j-1])
		}
		if want := geom.Distance(parent.Location, hub.Location); hub.EdgeCost != want {
			t.Fatalf("path[%d] edge cost = %v, want %v", j, hub.EdgeCost, want)
		}
	}
}

func containsCell(cells []geom.CellKey, c geom.CellKey) bool {
	for _, k := range cells {
		if k == c {
			return true
		}
	}
	return false
}

func TestHubCostsNeverIncrease(t *testing.T) {
	edges := randomGraph(42, 7, 4)
	goal := cell(6, 6, 6)
	oracle := newGraphOracle(edges)
	stepper := NewStepper(pos(0, 0, 0), goal.Position(), 0, oracle,
		WithEyeOffset(geom.Position{}), WithLogger(quietLogger()))

	seen := make(map[geom.CellKey]float64)
	for i := 0; i < 10000; i++ {
		snapshot := stepper.Step()
		stepper.search.store.Each(func(key geom.CellKey, hub *internal.Hub) {
			if prev, ok := seen[key]; ok && hub.Cumulative > prev {
				t.Fatalf("hub %v cost rose from %v to %v", key, prev, hub.Cumulative)
			}
			seen[key] = hub.Cumulative
		})
		if snapshot.Done {
			return
		}
	}
	t.Fatal("stepper never finished")
}

func TestRelaxRefreshesHeuristic(t *testing.T) {
	goal := pos(0, 0, 30)
	for _, refresh := range []bool{false, true} {
		s := newSearch(pos(0, 0, 0), goal, 0, newGraphOracle(nil),
			buildOptions([]Option{WithHeuristicRefresh(refresh), WithLogger(quietLogger())}))
		s.reset()
		// a known hub whose location sits off the corner of its cell, with a
		// stale heuristic and an expensive route
		idx := s.store.Put(cell(0, 0, 10), internal.Hub{
			Location:   pos(0.9, 0.9, 10.9),
			Parent:     internal.NoParent,
			Heuristic:  999,
			Cumulative: 100,
			QueueIndex: -1,
		})
		s.open.Push(idx)

		if s.relax(0, cell(0, 0, 10)) {
			t.Fatalf("refresh=%v: relax reported the goal", refresh)
		}
		hub := s.store.At(idx)
		if hub.Location != pos(0, 0, 10) || hub.Cumulative != 10 || hub.Parent != 0 {
			t.Fatalf("refresh=%v: hub not re-promoted: %+v", refresh, *hub)
		}
		want := 999.0
		if refresh {
			want = geom.Heuristic(pos(0, 0, 10), goal)
		}
		if hub.Heuristic != want {
			t.Errorf("refresh=%v: heuristic = %v, want %v", refresh, hub.Heuristic, want)
		}
		if hub.QueuedF != hub.F() {
			t.Errorf("refresh=%v: queued under %v, want %v", refresh, hub.QueuedF, hub.F())
		}
	}
}
