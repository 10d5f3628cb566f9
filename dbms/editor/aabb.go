package editor

import (
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// AABBEditor fills or clears an axis-aligned box [Min, Max) with an
// optional paint color, satisfying VBREditor. It is one of the
// ready-made editors the worked scenarios (spec.md §8) exercise without
// the spec naming a shipped type for it.
type AABBEditor struct {
	LevelCount int // the octree's L, needed to turn a node level into a voxel-space side length
	Min, Max   nodepool.Coord
	Clearing   bool // true: Clear the box; false: Fill it
	Color      vbr.Color
}

func (e AABBEditor) side(level int) int { return 1 << uint(e.LevelCount-level) }

func (e AABBEditor) containsBox(coord nodepool.Coord, side int) bool {
	return coord.X >= e.Min.X && coord.Y >= e.Min.Y && coord.Z >= e.Min.Z &&
		coord.X+side <= e.Max.X && coord.Y+side <= e.Max.Y && coord.Z+side <= e.Max.Z
}

func (e AABBEditor) intersectsBox(coord nodepool.Coord, side int) bool {
	return coord.X < e.Max.X && coord.Y < e.Max.Y && coord.Z < e.Max.Z &&
		coord.X+side > e.Min.X && coord.Y+side > e.Min.Y && coord.Z+side > e.Min.Z
}

func (e AABBEditor) contains(c nodepool.Coord) bool {
	return c.X >= e.Min.X && c.X < e.Max.X &&
		c.Y >= e.Min.Y && c.Y < e.Max.Y &&
		c.Z >= e.Min.Z && c.Z < e.Max.Z
}

// EditNode implements Editor.
func (e AABBEditor) EditNode(level int, coord nodepool.Coord, current nodepool.Pointer) Decision {
	side := e.side(level)
	if !e.intersectsBox(coord, side) {
		return Unaffected
	}
	if e.containsBox(coord, side) {
		if e.Clearing {
			return Clear
		}
		return Fill
	}
	return Proceed
}

// EditVoxel implements Editor.
func (e AABBEditor) EditVoxel(coord nodepool.Coord, current bool) bool {
	if e.contains(coord) {
		return !e.Clearing
	}
	return current
}

// EditNodeColor implements VBREditor.
func (e AABBEditor) EditNodeColor(level int, coord nodepool.Coord, current nodepool.Pointer, color *vbr.Color) Decision {
	d := e.EditNode(level, coord, current)
	if d == Fill && !e.Clearing {
		*color = e.Color
	}
	return d
}

// EditVoxelColor implements VBREditor.
func (e AABBEditor) EditVoxelColor(coord nodepool.Coord, current bool, color *vbr.Color) (bool, vbr.Color) {
	occ := e.EditVoxel(coord, current)
	if e.contains(coord) && !e.Clearing {
		return occ, e.Color
	}
	if color != nil {
		return occ, *color
	}
	return occ, vbr.Color{}
}
