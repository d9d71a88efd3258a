// Package geom holds the value types and cost arithmetic shared by the
// search: continuous positions, integer cell keys and the goal test.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Position is a continuous 3D coordinate.
type Position = r3.Vec

// CellKey is the integer identity of a block cell.
// Two positions that floor to the same integers share a key.
type CellKey struct {
	X, Y, Z int
}

// Position returns the minimum corner of the cell.
func (k CellKey) Position() Position {
	return Position{X: float64(k.X), Y: float64(k.Y), Z: float64(k.Z)}
}

// Add offsets the key by whole cells.
func (k CellKey) Add(dx, dy, dz int) CellKey {
	return CellKey{X: k.X + dx, Y: k.Y + dy, Z: k.Z + dz}
}

// Distance is the Euclidean distance between a and b. It is the edge cost
// of a teleport hop.
func Distance(a, b Position) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// DistanceSquared avoids the square root for tolerance checks.
func DistanceSquared(a, b Position) float64 {
	return r3.Norm2(r3.Sub(a, b))
}

// Heuristic estimates the remaining cost from p to goal.
// Straight-line distance never overestimates a chain of straight hops.
func Heuristic(p, goal Position) float64 {
	return Distance(p, goal)
}

// Discretize floors each component to form the cell key.
func Discretize(p Position) CellKey {
	return CellKey{
		X: int(math.Floor(p.X)),
		Y: int(math.Floor(p.Y)),
		Z: int(math.Floor(p.Z)),
	}
}

// Floor returns p with every component floored.
func Floor(p Position) Position {
	return Position{X: math.Floor(p.X), Y: math.Floor(p.Y), Z: math.Floor(p.Z)}
}

// Ceil returns p with every component ceiled.
func Ceil(p Position) Position {
	return Position{X: math.Ceil(p.X), Y: math.Ceil(p.Y), Z: math.Ceil(p.Z)}
}

// Truncate drops the fractional part of each component, rounding toward zero.
// Note this differs from Discretize for negative coordinates.
func Truncate(p Position) CellKey {
	return CellKey{X: int(p.X), Y: int(p.Y), Z: int(p.Z)}
}

// GoalTest reports whether p counts as having reached goal.
//
// A non-zero toleranceSquared accepts any p within that squared distance.
// Otherwise, and as a fallback, the truncated coordinates must match.
func GoalTest(p, goal Position, toleranceSquared float64) bool {
	if toleranceSquared != 0 && DistanceSquared(p, goal) <= toleranceSquared {
		return true
	}
	return Truncate(p) == Truncate(goal)
}
