package voxel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pdrpinto/teleport-astar/geom"
)

// landingOffset aims sight lines just above the centre of a block's top face.
var landingOffset = geom.Position{X: 0.5, Y: 1.05, Z: 0.5}

// LineOfSight enumerates teleport destinations visible from an eye
// position. Candidates come out ordered by x, then y, then z.
type LineOfSight struct {
	World *World
	// MaxCandidates caps the result when positive.
	MaxCandidates int
}

// Reachable returns every cell within radius of origin that can be
// teleported onto and whose landing point is visible from origin.
func (o LineOfSight) Reachable(origin geom.Position, radius float64) []geom.CellKey {
	lo, hi, ok := o.World.Bounds()
	if !ok || radius < 0 {
		return nil
	}
	reach := int(math.Ceil(radius))
	centre := geom.Discretize(origin)
	radiusSquared := radius * radius

	var out []geom.CellKey
	for x := max(centre.X-reach, lo.X); x <= min(centre.X+reach, hi.X); x++ {
		for y := max(centre.Y-reach, lo.Y); y <= min(centre.Y+reach, hi.Y); y++ {
			for z := max(centre.Z-reach, lo.Z); z <= min(centre.Z+reach, hi.Z); z++ {
				cell := geom.CellKey{X: x, Y: y, Z: z}
				if !o.World.CanTeleportTo(cell) {
					continue
				}
				target := r3.Add(cell.Position(), landingOffset)
				if geom.DistanceSquared(origin, target) > radiusSquared {
					continue
				}
				if !o.World.Visible(origin, target, cell) {
					continue
				}
				out = append(out, cell)
				if o.MaxCandidates > 0 && len(out) >= o.MaxCandidates {
					return out
				}
			}
		}
	}
	return out
}

// Visible reports whether the segment from -> to crosses no opaque block
// other than ignore.
func (w *World) Visible(from, to geom.Position, ignore geom.CellKey) bool {
	return Traverse(from, to, func(cell geom.CellKey) bool {
		return cell == ignore || !w.At(cell).Opaque()
	})
}

// Traverse walks every cell the segment from -> to passes through, in
// order, using a 3D DDA. It stops early and returns false as soon as
// visit returns false.
func Traverse(from, to geom.Position, visit func(cell geom.CellKey) bool) bool {
	current := geom.Discretize(from)
	end := geom.Discretize(to)
	delta := r3.Sub(to, from)

	stepX, maxX, deltaX := axis(from.X, delta.X)
	stepY, maxY, deltaY := axis(from.Y, delta.Y)
	stepZ, maxZ, deltaZ := axis(from.Z, delta.Z)

	limit := abs(end.X-current.X) + abs(end.Y-current.Y) + abs(end.Z-current.Z) + 1
	for i := 0; i <= limit; i++ {
		if !visit(current) {
			return false
		}
		if current == end {
			return true
		}
		switch {
		case maxX <= maxY && maxX <= maxZ:
			if maxX > 1 {
				return true
			}
			current.X += stepX
			maxX += deltaX
		case maxY <= maxZ:
			if maxY > 1 {
				return true
			}
			current.Y += stepY
			maxY += deltaY
		default:
			if maxZ > 1 {
				return true
			}
			current.Z += stepZ
			maxZ += deltaZ
		}
	}
	return true
}

// axis returns the step direction, the parametric distance to the first
// cell boundary and the distance between boundaries along one axis.
func axis(p, d float64) (step int, tMax, tDelta float64) {
	switch {
	case d > 0:
		return 1, (math.Floor(p) + 1 - p) / d, 1 / d
	case d < 0:
		return -1, (p - math.Floor(p)) / -d, -1 / d
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
