// Package editor implements the parallel recursive edit engine of
// spec.md §4.3: a descent over the geometry octree (and, when the
// supplied Editor also satisfies VBREditor, a lock-step descent over
// the color octree) that rewrites a root pointer into a new root
// pointer reflecting the edit region.
package editor

import (
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// Decision is an Editor's per-subtree verdict.
type Decision int

const (
	// Unaffected leaves the subtree pointer unchanged.
	Unaffected Decision = iota
	// Clear replaces the subtree with Null.
	Clear
	// Fill replaces the subtree with Filled (or, for a VBREditor, an
	// additional SolidColor in the color octree).
	Fill
	// Proceed recurses into the subtree's children (or, at leaf level,
	// its individual voxels).
	Proceed
)

// Editor is the plain capability set spec.md §4.3 requires: a decision
// per subtree, and a per-voxel bit rewrite once the descent reaches
// leaf level. Implementations must be pure — edit_node/edit_voxel must
// not mutate pool state or enqueue further edits.
type Editor interface {
	EditNode(level int, coord nodepool.Coord, current nodepool.Pointer) Decision
	EditVoxel(coord nodepool.Coord, current bool) bool
}

// VBREditor additionally threads a mutable color through both methods,
// fusing the color-octree descent into the same recursive rewrite.
type VBREditor interface {
	Editor
	EditNodeColor(level int, coord nodepool.Coord, current nodepool.Pointer, color *vbr.Color) Decision
	EditVoxelColor(coord nodepool.Coord, current bool, color *vbr.Color) (bool, vbr.Color)
}
