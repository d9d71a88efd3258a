package internal

import "github.com/pdrpinto/teleport-astar/geom"

// NoParent marks a root hub.
const NoParent int32 = -1

// Hub is one discovered vertex of the search graph.
type Hub struct {
	Location   geom.Position
	Parent     int32
	Heuristic  float64
	EdgeCost   float64
	Cumulative float64

	// Frontier bookkeeping. QueueIndex is -1 while the hub is not queued.
	QueueIndex int
	QueuedF    float64
	Seq        uint64
	Closed     bool
}

// F is the frontier priority: cumulative cost plus heuristic.
func (h *Hub) F() float64 { return h.Cumulative + h.Heuristic }

// Store owns every hub of a search. Hubs live in an arena and refer to
// their parent by index, so predecessor links never own anything.
//
// Pointers returned by At are invalidated by the next Put.
type Store struct {
	hubs  []Hub
	index map[geom.CellKey]int32
}

// NewStore preallocates room for capacity hubs.
func NewStore(capacity int) *Store {
	return &Store{
		hubs:  make([]Hub, 0, capacity),
		index: make(map[geom.CellKey]int32, capacity),
	}
}

// Get looks up the hub stored for key.
func (s *Store) Get(key geom.CellKey) (int32, bool) {
	idx, ok := s.index[key]
	return idx, ok
}

// Put stores hub under key and returns its arena index. An existing hub
// for the same key is overwritten in place.
func (s *Store) Put(key geom.CellKey, hub Hub) int32 {
	if idx, ok := s.index[key]; ok {
		s.hubs[idx] = hub
		return idx
	}
	idx := int32(len(s.hubs))
	s.hubs = append(s.hubs, hub)
	s.index[key] = idx
	return idx
}

// At returns the hub at idx.
func (s *Store) At(idx int32) *Hub { return &s.hubs[idx] }

// Len is the number of discovered hubs.
func (s *Store) Len() int { return len(s.hubs) }

// Each calls fn for every hub. Iteration order is unspecified.
func (s *Store) Each(fn func(key geom.CellKey, hub *Hub)) {
	for key, idx := range s.index {
		fn(key, &s.hubs[idx])
	}
}

// Reset forgets all hubs but keeps the allocated capacity.
func (s *Store) Reset() {
	s.hubs = s.hubs[:0]
	clear(s.index)
}

// Lower re-promotes the hub at idx to a cheaper route. It refuses, and
// returns false, when cumulative is not strictly below the stored cost.
func (s *Store) Lower(idx int32, loc geom.Position, parent int32, edgeCost, cumulative float64) bool {
	h := &s.hubs[idx]
	if !(cumulative < h.Cumulative) {
		return false
	}
	h.Location = loc
	h.Parent = parent
	h.EdgeCost = edgeCost
	h.Cumulative = cumulative
	return true
}

// Reconstruct rebuilds the path ending at idx by walking parent links back
// to the root and reversing. Any tail positions are appended after idx.
func (s *Store) Reconstruct(idx int32, tail ...geom.Position) []geom.Position {
	path := make([]geom.Position, 0, 16)
	for i := len(tail) - 1; i >= 0; i-- {
		path = append(path, tail[i])
	}
	for current := idx; current != NoParent; current = s.hubs[current].Parent {
		path = append(path, s.hubs[current].Location)
		if len(path) > len(s.hubs)+len(tail) {
			// a parent cycle would loop forever; the driver never builds one
			panic("internal: parent cycle in hub store")
		}
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
