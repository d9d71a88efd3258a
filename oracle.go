package astar

import "github.com/pdrpinto/teleport-astar/geom"

// Oracle discovers the graph lazily. Reachable returns every cell a hop
// from origin may land on within radius. Candidates are consumed in the
// order returned, which decides both ties and which goal-reaching
// candidate wins, so implementations should return a fixed order for a
// fixed world.
type Oracle interface {
	Reachable(origin geom.Position, radius float64) []geom.CellKey
}

// OracleFunc adapts a plain function to Oracle.
type OracleFunc func(origin geom.Position, radius float64) []geom.CellKey

// Reachable calls f.
func (f OracleFunc) Reachable(origin geom.Position, radius float64) []geom.CellKey {
	return f(origin, radius)
}
