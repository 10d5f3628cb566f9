package gc

import (
	"time"

	"go.uber.org/zap"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/dagerr"
	"github.com/voxeldag/voxeldag/dbms/editor"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
)

// Stats summarizes one GC cycle, for logging and dbms/metrics.
type Stats struct {
	ReachableNodes int
	Pause          time.Duration
}

// Collect runs spec.md §4.5's mark-sweep-compact against eng: it claims
// eng's submission queue (failing with ErrEditInFlight if an edit is
// outstanding), builds fresh shadow pools holding only reachable nodes,
// and swaps them into eng in place. When eng.Colors is non-nil, the
// color octree is compacted by walking it in lock-step with the
// already-read geometry structure rather than re-deriving reachability.
func Collect(eng *editor.Engine, fanoutThreshold int, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	release, ok := eng.TryQuiesce()
	if !ok {
		return Stats{}, dagerr.ErrEditInFlight
	}
	defer release()

	start := time.Now()

	srcNodes := eng.Nodes
	marks, err := markGeometry(srcNodes, fanoutThreshold)
	if err != nil {
		return Stats{}, err
	}

	dstNodes, err := nodepool.New(srcNodes.Config(), log)
	if err != nil {
		return Stats{}, err
	}
	newRoot, err := compactGeometry(srcNodes, dstNodes, fanoutThreshold)
	if err != nil {
		return Stats{}, err
	}
	dstNodes.SetRoot(newRoot)

	var newColorRoot colorpool.Pointer
	var dstColors *colorpool.Pool
	if eng.Colors != nil {
		dstColors, err = colorpool.New(eng.Colors.Config(), log)
		if err != nil {
			return Stats{}, err
		}
		newColorRoot, err = compactColors(srcNodes, eng.Colors, dstColors, fanoutThreshold)
		if err != nil {
			return Stats{}, err
		}
		dstColors.SetRoot(newColorRoot)
	}

	eng.Nodes = dstNodes
	if eng.Colors != nil {
		eng.Colors = dstColors
	}

	stats := Stats{ReachableNodes: marks.count(), Pause: time.Since(start)}
	log.Info("gc cycle complete",
		zap.Int("reachable_nodes", stats.ReachableNodes),
		zap.Duration("pause", stats.Pause),
		zap.Uint32("new_root", uint32(newRoot)),
	)
	return stats, nil
}
