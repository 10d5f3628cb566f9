package main

import (
	"context"
	"math/rand"

	"github.com/voxeldag/voxeldag/dbms/editor"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// WorkloadType names a mixed edit pattern, mirroring the teacher's OLTP/
// OLAP/Reporting split — here "many small edits" vs. "one large edit"
// rather than read/write ratios, since a DAG engine has no read path
// separate from a lookup.
type WorkloadType string

const (
	// ManySmall submits a run of small, scattered AABB fills, exercising
	// hash-cons dedup across many distinct small subtrees.
	ManySmall WorkloadType = "ManySmall"
	// FewLarge submits a handful of large, overlapping AABB fills.
	FewLarge WorkloadType = "FewLarge"
)

// ExecuteWorkload submits ops edits of the given pattern against eng,
// each a random axis-aligned box within a worldSide-sided world.
func ExecuteWorkload(ctx context.Context, eng *editor.Engine, levelCount int, wType WorkloadType, ops int) error {
	worldSide := 1 << uint(levelCount)
	for i := 0; i < ops; i++ {
		var boxSide int
		switch wType {
		case ManySmall:
			boxSide = 1 + rand.Intn(worldSide/8)
		case FewLarge:
			boxSide = worldSide/2 + rand.Intn(worldSide/2)
		}
		if boxSide > worldSide {
			boxSide = worldSide
		}
		originMax := worldSide - boxSide
		origin := nodepool.Coord{}
		if originMax > 0 {
			origin = nodepool.Coord{X: rand.Intn(originMax + 1), Y: rand.Intn(originMax + 1), Z: rand.Intn(originMax + 1)}
		}

		ed := editor.AABBEditor{
			LevelCount: levelCount,
			Min:        origin,
			Max:        nodepool.Coord{X: origin.X + boxSide, Y: origin.Y + boxSide, Z: origin.Z + boxSide},
			Color:      vbr.Color{R: uint8(rand.Intn(256)), G: uint8(rand.Intn(256)), B: uint8(rand.Intn(256))},
		}
		res, err := eng.Submit(ctx, ed)
		if err != nil {
			return err
		}
		eng.Nodes.SetRoot(res.GeometryRoot)
		if eng.Colors != nil {
			eng.Colors.SetRoot(res.ColorRoot)
		}
	}
	return nil
}
