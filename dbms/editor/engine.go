package editor

import (
	"context"

	"go.uber.org/zap"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/dagerr"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// Engine owns the geometry pool (and, optionally, a color pool) and
// drives the recursive rewrite of spec.md §4.3. One Engine serializes
// its own edit submissions via a buffered channel of size 1, matching
// §5's "at-most-one-edit discipline". Cancellation mid-edit is not
// supported (spec.md §5) — an edit, once it starts recursing, always
// runs to completion; ctx is only consulted while waiting for the
// submission slot.
type Engine struct {
	Nodes  *nodepool.Pool
	Colors *colorpool.Pool // nil if this Engine edits geometry only

	// FanoutThreshold is T: node levels at or above this depth recurse
	// sequentially; below it each octant is spawned to a goroutine and
	// joined before the parent proceeds (spec.md §4.3/§5).
	FanoutThreshold int

	log   *zap.Logger
	queue chan struct{} // capacity 1: at most one edit runs at a time
}

// NewEngine returns an Engine ready to serialize edits against nodes
// (and, if non-nil, colors). If colors is non-nil, its Config.LeafLevel
// (K) must not exceed nodes.Config().LeafLevel() (L-2), per spec.md
// §3.2's K <= L-2 constraint.
func NewEngine(nodes *nodepool.Pool, colors *colorpool.Pool, fanoutThreshold int, log *zap.Logger) (*Engine, error) {
	if colors != nil && colors.Config().LeafLevel > nodes.Config().LeafLevel() {
		return nil, dagerr.InvalidConfig("color leaf level must not exceed the geometry leaf level")
	}
	if log == nil {
		log = zap.NewNop()
	}
	q := make(chan struct{}, 1)
	q <- struct{}{}
	return &Engine{Nodes: nodes, Colors: colors, FanoutThreshold: fanoutThreshold, log: log, queue: q}, nil
}

// Result is the outcome of one submitted edit: the new geometry root,
// and (if a VBREditor and color pool were in play) the new color root.
type Result struct {
	GeometryRoot nodepool.Pointer
	ColorRoot    colorpool.Pointer
}

// TryQuiesce attempts to claim the submission queue without blocking,
// for the garbage collector: spec.md §5 forbids GC while an edit is
// outstanding, and the collector would rather fail fast than stall
// waiting for one to finish. ok is false if an edit currently holds the
// queue; the caller (dbms/gc) surfaces that as ErrEditInFlight. On
// success, the caller must call release once it has finished rewriting
// Nodes/Colors.
func (e *Engine) TryQuiesce() (release func(), ok bool) {
	select {
	case <-e.queue:
		return func() { e.queue <- struct{}{} }, true
	default:
		return nil, false
	}
}

// Submit runs ed to completion against the Engine's current roots,
// blocking until any in-flight edit finishes, then returns the new
// roots. The caller installs the returned roots (e.g. via
// Nodes.SetRoot) before the next Submit.
func (e *Engine) Submit(ctx context.Context, ed Editor) (Result, error) {
	select {
	case <-e.queue:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { e.queue <- struct{}{} }()

	root := e.Nodes.Root()
	vbred, fused := ed.(VBREditor)
	fused = fused && e.Colors != nil

	// When fused, rewriteColorNode already walks (and rewrites) the
	// geometry octree in lock-step with color via EditNodeColor's
	// wrapped EditNode decisions, so calling rewriteNode separately
	// would recompute the identical geometry twice.
	if fused {
		var color vbr.Color
		newRoot, newColorRoot, err := e.rewriteColorNode(vbred, 0, nodepool.Coord{}, root, e.Colors.Root(), color)
		if err != nil {
			return Result{}, err
		}
		e.log.Debug("edit applied", zap.Uint32("new_root", uint32(newRoot)))
		return Result{GeometryRoot: newRoot, ColorRoot: newColorRoot}, nil
	}

	newRoot, err := e.rewriteNode(ed, 0, nodepool.Coord{}, root)
	if err != nil {
		return Result{}, err
	}
	e.log.Debug("edit applied", zap.Uint32("new_root", uint32(newRoot)))

	colorRoot := colorpool.Null
	if e.Colors != nil {
		colorRoot = e.Colors.Root()
	}
	return Result{GeometryRoot: newRoot, ColorRoot: colorRoot}, nil
}

// rewriteNode implements the recursive rewrite over the geometry octree
// (spec.md §4.3 steps 1-5), fanning out across octants below
// FanoutThreshold.
func (e *Engine) rewriteNode(ed Editor, level int, coord nodepool.Coord, ptr nodepool.Pointer) (nodepool.Pointer, error) {
	cfg := e.Nodes.Config()
	switch ed.EditNode(level, coord, ptr) {
	case Unaffected:
		return ptr, nil
	case Clear:
		return nodepool.Null, nil
	case Fill:
		return nodepool.Filled, nil
	case Proceed:
		// fall through
	default:
		panic(dagerr.InvalidEditorPanic{Reason: "EditNode returned an unrecognized Decision"})
	}

	if level == cfg.LeafLevel() {
		return e.rewriteLeaf(ed, coord, ptr)
	}
	if level >= cfg.VoxelLevel() {
		panic(dagerr.InvalidEditorPanic{Reason: "EditNode returned Proceed at the voxel level"})
	}

	current := e.childrenOf(level, ptr)
	childSide := cfg.Side(level + 1)

	var out nodepool.InnerChildren
	rewrite := func(i int) error {
		childCoord := coord.Add(nodepool.OctantOffset(i, childSide))
		p, err := e.rewriteNode(ed, level+1, childCoord, current[i])
		if err != nil {
			return err
		}
		out[i] = p
		return nil
	}
	if err := e.fanOut(level+1, rewrite); err != nil {
		return nodepool.Null, err
	}

	return e.normalizeAndUpsertGeom(level, out)
}

// childrenOf decodes ptr's 8 current children at level: Null/Filled
// sentinels expand directly, a real pointer is read back from the pool.
func (e *Engine) childrenOf(level int, ptr nodepool.Pointer) nodepool.InnerChildren {
	var current nodepool.InnerChildren
	switch ptr {
	case nodepool.Null:
		for i := range current {
			current[i] = nodepool.Null
		}
	case nodepool.Filled:
		for i := range current {
			current[i] = nodepool.Filled
		}
	default:
		words := e.Nodes.Words(level, ptr)
		for i := range current {
			current[i] = nodepool.ChildAt(words, i)
		}
	}
	return current
}

// fanOut runs work(0..7) in parallel goroutines while childLevel is
// still shallow (below FanoutThreshold, so each task still covers many
// thousands of voxels per spec.md §4.3), and sequentially once
// childLevel reaches the threshold, to avoid spawning a goroutine per
// near-leaf subtree.
func (e *Engine) fanOut(childLevel int, work func(i int) error) error {
	return FanOut(childLevel, e.FanoutThreshold, work)
}

// rewriteLeaf implements the per-voxel rewrite at leaf level.
func (e *Engine) rewriteLeaf(ed Editor, coord nodepool.Coord, ptr nodepool.Pointer) (nodepool.Pointer, error) {
	var words []uint32
	leafLevel := e.Nodes.Config().LeafLevel()
	if ptr != nodepool.Null && ptr != nodepool.Filled {
		words = e.Nodes.Words(leafLevel, ptr)
	}
	leaf := nodepool.DecodeLeaf(ptr, words)

	var out nodepool.Leaf
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				v := ed.EditVoxel(coord.Add(nodepool.Coord{X: x, Y: y, Z: z}), leaf.At(x, y, z))
				out.Set(x, y, z, v)
			}
		}
	}

	if p, ok := nodepool.NormalizeLeaf(out); ok {
		return p, nil
	}
	return e.Nodes.Upsert(leafLevel, out.Encode())
}
