// Package voxel is a small sparse block world that answers the two
// queries the search consumes: whether a block can be teleported onto,
// and which such blocks are in line of sight of an eye position.
package voxel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdrpinto/teleport-astar/geom"
)

// ErrUnknownKind is returned when a block kind name cannot be parsed.
var ErrUnknownKind = errors.New("voxel: unknown block kind")

// Kind is a block type.
type Kind uint8

const (
	Air Kind = iota
	Solid
	Carpet
	Skull
	WallSign
	StandingSign
	Plant
	Fluid
	Hazard
)

type kindInfo struct {
	name string
	// collidable blocks can be collided with at all
	collidable bool
	// box is true when the block has a collision bounding box
	box bool
	// opaque blocks stop line of sight
	opaque bool
}

var kinds = [...]kindInfo{
	Air:          {name: "air"},
	Solid:        {name: "solid", collidable: true, box: true, opaque: true},
	Carpet:       {name: "carpet", collidable: true, box: true},
	Skull:        {name: "skull", collidable: true, box: true},
	WallSign:     {name: "wall_sign", collidable: true},
	StandingSign: {name: "standing_sign", collidable: true},
	Plant:        {name: "plant", collidable: true},
	Fluid:        {name: "fluid"},
	Hazard:       {name: "hazard", collidable: true, box: true, opaque: true},
}

func (k Kind) info() kindInfo {
	if int(k) < len(kinds) {
		return kinds[k]
	}
	return kindInfo{name: "unknown"}
}

func (k Kind) String() string { return k.info().name }

// Opaque reports whether the block stops line of sight.
func (k Kind) Opaque() bool { return k.info().opaque }

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, info := range kinds {
		if info.name == name {
			return Kind(k), nil
		}
	}
	return Air, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// World is a sparse block map; unset cells are air.
type World struct {
	blocks   map[geom.CellKey]Kind
	min, max geom.CellKey
	bounded  bool
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{blocks: make(map[geom.CellKey]Kind)}
}

// Set places a block. Setting Air removes it.
func (w *World) Set(at geom.CellKey, kind Kind) {
	if kind == Air {
		delete(w.blocks, at)
		return
	}
	if !w.bounded {
		w.min, w.max, w.bounded = at, at, true
	} else {
		w.min = geom.CellKey{X: min(w.min.X, at.X), Y: min(w.min.Y, at.Y), Z: min(w.min.Z, at.Z)}
		w.max = geom.CellKey{X: max(w.max.X, at.X), Y: max(w.max.Y, at.Y), Z: max(w.max.Z, at.Z)}
	}
	w.blocks[at] = kind
}

// Fill sets every block of the inclusive box spanned by a and b.
func (w *World) Fill(a, b geom.CellKey, kind Kind) {
	for x := min(a.X, b.X); x <= max(a.X, b.X); x++ {
		for y := min(a.Y, b.Y); y <= max(a.Y, b.Y); y++ {
			for z := min(a.Z, b.Z); z <= max(a.Z, b.Z); z++ {
				w.Set(geom.CellKey{X: x, Y: y, Z: z}, kind)
			}
		}
	}
}

// At returns the block at a cell.
func (w *World) At(at geom.CellKey) Kind {
	return w.blocks[at]
}

// Len is the number of non-air blocks.
func (w *World) Len() int { return len(w.blocks) }

// Bounds returns the box that has ever held a block. It never shrinks
// when blocks are removed. ok is false for a world that never held one.
func (w *World) Bounds() (lo, hi geom.CellKey, ok bool) {
	return w.min, w.max, w.bounded
}

// CanTeleportTo reports whether a hop may land on top of the block at
// cell: it must be a collidable block with a collision box, not one of
// the thin or decorative kinds, not hazardous, with two air blocks above.
func (w *World) CanTeleportTo(cell geom.CellKey) bool {
	kind := w.At(cell)
	info := kind.info()
	if !info.collidable || !info.box {
		return false
	}
	switch kind {
	case Carpet, Skull, WallSign, StandingSign, Hazard:
		return false
	}
	return w.At(cell.Add(0, 1, 0)) == Air && w.At(cell.Add(0, 2, 0)) == Air
}

// IsPositionValid checks the block under p, truncating coordinates.
func (w *World) IsPositionValid(p geom.Position) bool {
	return w.CanTeleportTo(geom.Truncate(p))
}
