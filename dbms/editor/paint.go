package editor

import (
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// PaintSphereEditor recolors voxels already occupied within a ball,
// leaving occupancy untouched — unlike SphereEditor's Fill mode, which
// would also occupy previously-empty voxels inside the radius. This is
// the "paint tool only affects solid voxels" editor the worked examples
// (spec.md §8 scenario 3) rely on: painting a shell around a
// partially-cleared sphere must not re-fill the cleared interior.
type PaintSphereEditor struct {
	LevelCount int
	Center     nodepool.Coord
	Radius     int
	Color      vbr.Color
}

func (e PaintSphereEditor) side(level int) int { return 1 << uint(e.LevelCount-level) }

func (e PaintSphereEditor) inside(c nodepool.Coord) bool {
	d := sq(c.X-e.Center.X) + sq(c.Y-e.Center.Y) + sq(c.Z-e.Center.Z)
	return d <= e.Radius*e.Radius
}

// EditNode implements Editor: geometry is never modified by painting.
func (e PaintSphereEditor) EditNode(level int, coord nodepool.Coord, current nodepool.Pointer) Decision {
	side := e.side(level)
	minSq, _ := (SphereEditor{LevelCount: e.LevelCount, Center: e.Center, Radius: e.Radius}).cubeDistances(coord, side)
	if minSq > e.Radius*e.Radius {
		return Unaffected
	}
	if current == nodepool.Null {
		return Unaffected
	}
	return Proceed
}

// EditVoxel implements Editor: occupancy is always preserved.
func (e PaintSphereEditor) EditVoxel(coord nodepool.Coord, current bool) bool { return current }

// EditNodeColor implements VBREditor, mirroring EditNode's geometry
// decision so the fused color walk descends exactly where occupancy
// could change color.
func (e PaintSphereEditor) EditNodeColor(level int, coord nodepool.Coord, current nodepool.Pointer, color *vbr.Color) Decision {
	return e.EditNode(level, coord, current)
}

// EditVoxelColor implements VBREditor: only occupied voxels inside the
// sphere are recolored; everything else keeps its existing color.
func (e PaintSphereEditor) EditVoxelColor(coord nodepool.Coord, current bool, color *vbr.Color) (bool, vbr.Color) {
	existing := vbr.Color{}
	if color != nil {
		existing = *color
	}
	if !current {
		return false, existing
	}
	if e.inside(coord) {
		return true, e.Color
	}
	return true, existing
}
