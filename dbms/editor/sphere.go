package editor

import (
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// SphereEditor fills, clears, or paints a ball of the given center and
// radius (voxel-center distance, inclusive), satisfying VBREditor. Like
// AABBEditor it is a supplemental ready-made editor used by the spec's
// worked examples (spec.md §8 scenarios 2–3).
type SphereEditor struct {
	LevelCount int
	Center     nodepool.Coord
	Radius     int
	Clearing   bool
	Color      vbr.Color
}

func (e SphereEditor) side(level int) int { return 1 << uint(e.LevelCount-level) }

// cubeDistances returns the minimum and maximum squared distance from
// Center to any point in the axis-aligned cube [coord, coord+side)^3.
func (e SphereEditor) cubeDistances(coord nodepool.Coord, side int) (minSq, maxSq int) {
	axisMinMax := func(c, lo int) (near, far int) {
		hi := lo + side - 1
		switch {
		case c < lo:
			near = lo
		case c > hi:
			near = hi
		default:
			near = c
		}
		if abs(c-lo) >= abs(c-hi) {
			far = lo
		} else {
			far = hi
		}
		return near, far
	}

	nx, fx := axisMinMax(e.Center.X, coord.X)
	ny, fy := axisMinMax(e.Center.Y, coord.Y)
	nz, fz := axisMinMax(e.Center.Z, coord.Z)

	minSq = sq(e.Center.X-nx) + sq(e.Center.Y-ny) + sq(e.Center.Z-nz)
	maxSq = sq(e.Center.X-fx) + sq(e.Center.Y-fy) + sq(e.Center.Z-fz)
	return
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sq(v int) int { return v * v }

// EditNode implements Editor.
func (e SphereEditor) EditNode(level int, coord nodepool.Coord, current nodepool.Pointer) Decision {
	side := e.side(level)
	minSq, maxSq := e.cubeDistances(coord, side)
	rSq := e.Radius * e.Radius
	if minSq > rSq {
		return Unaffected
	}
	if maxSq <= rSq {
		if e.Clearing {
			return Clear
		}
		return Fill
	}
	return Proceed
}

// EditVoxel implements Editor.
func (e SphereEditor) EditVoxel(coord nodepool.Coord, current bool) bool {
	if e.inside(coord) {
		return !e.Clearing
	}
	return current
}

func (e SphereEditor) inside(c nodepool.Coord) bool {
	d := sq(c.X-e.Center.X) + sq(c.Y-e.Center.Y) + sq(c.Z-e.Center.Z)
	return d <= e.Radius*e.Radius
}

// EditNodeColor implements VBREditor.
func (e SphereEditor) EditNodeColor(level int, coord nodepool.Coord, current nodepool.Pointer, color *vbr.Color) Decision {
	d := e.EditNode(level, coord, current)
	if d == Fill && !e.Clearing {
		*color = e.Color
	}
	return d
}

// EditVoxelColor implements VBREditor.
func (e SphereEditor) EditVoxelColor(coord nodepool.Coord, current bool, color *vbr.Color) (bool, vbr.Color) {
	occ := e.EditVoxel(coord, current)
	if e.inside(coord) && !e.Clearing {
		return occ, e.Color
	}
	if color != nil {
		return occ, *color
	}
	return occ, vbr.Color{}
}
