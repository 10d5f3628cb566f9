package editor

import (
	"context"
	"testing"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// smallNodeConfig describes a tiny 16^3 world (L=4): node levels 0 and
// 1, leaf level 2, voxel level 4.
func smallNodeConfig() nodepool.Config {
	return nodepool.Config{
		LevelCount:               4,
		TopLevelCount:            1,
		WordBitsPerPage:          6,
		PageBitsPerBucket:        1,
		BucketBitsPerTopLevel:    2,
		BucketBitsPerBottomLevel: 3,
	}
}

func smallColorConfig() colorpool.Config {
	return colorpool.Config{
		LeafLevel:           1,
		NodeBitsPerNodePage: 3,
		WordBitsPerLeafPage: 8,
		NodePageCount:       4,
		LeafPageCount:       4,
	}
}

func newTestEngine(t *testing.T, withColor bool) *Engine {
	t.Helper()
	nodes, err := nodepool.New(smallNodeConfig(), nil)
	if err != nil {
		t.Fatalf("nodepool.New: %v", err)
	}
	var colors *colorpool.Pool
	if withColor {
		colors, err = colorpool.New(smallColorConfig(), nil)
		if err != nil {
			t.Fatalf("colorpool.New: %v", err)
		}
	}
	eng, err := NewEngine(nodes, colors, 8, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestEngine_FullWorldFill(t *testing.T) {
	eng := newTestEngine(t, false)
	ed := AABBEditor{LevelCount: 4, Min: nodepool.Coord{}, Max: nodepool.Coord{X: 16, Y: 16, Z: 16}}

	res, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.GeometryRoot != nodepool.Filled {
		t.Fatalf("want Filled root, got %v", res.GeometryRoot)
	}
}

func TestEngine_FullWorldClear_OfEmptyIsNoop(t *testing.T) {
	eng := newTestEngine(t, false)
	ed := AABBEditor{LevelCount: 4, Min: nodepool.Coord{}, Max: nodepool.Coord{X: 16, Y: 16, Z: 16}, Clearing: true}

	res, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.GeometryRoot != nodepool.Null {
		t.Fatalf("want Null root, got %v", res.GeometryRoot)
	}
}

func TestEngine_PartialFillThenSecondPartialFillCoexist(t *testing.T) {
	eng := newTestEngine(t, false)

	first := AABBEditor{LevelCount: 4, Min: nodepool.Coord{}, Max: nodepool.Coord{X: 8, Y: 8, Z: 8}}
	res, err := eng.Submit(context.Background(), first)
	if err != nil {
		t.Fatalf("Submit 1: %v", err)
	}
	if res.GeometryRoot == nodepool.Null || res.GeometryRoot == nodepool.Filled {
		t.Fatalf("partial fill must produce a real stored node, got %v", res.GeometryRoot)
	}
	eng.Nodes.SetRoot(res.GeometryRoot)

	second := AABBEditor{LevelCount: 4, Min: nodepool.Coord{X: 8, Y: 8, Z: 8}, Max: nodepool.Coord{X: 16, Y: 16, Z: 16}}
	res2, err := eng.Submit(context.Background(), second)
	if err != nil {
		t.Fatalf("Submit 2: %v", err)
	}
	if res2.GeometryRoot == nodepool.Null || res2.GeometryRoot == nodepool.Filled {
		t.Fatalf("still-partial world must not collapse to a sentinel, got %v", res2.GeometryRoot)
	}
}

func TestEngine_IdempotentDoubleFill(t *testing.T) {
	eng := newTestEngine(t, false)
	ed := AABBEditor{LevelCount: 4, Min: nodepool.Coord{X: 2, Y: 2, Z: 2}, Max: nodepool.Coord{X: 6, Y: 6, Z: 6}}

	res1, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit 1: %v", err)
	}
	eng.Nodes.SetRoot(res1.GeometryRoot)

	res2, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit 2: %v", err)
	}
	if res2.GeometryRoot != res1.GeometryRoot {
		t.Fatalf("re-applying the same fill must be a no-op: %v vs %v", res1.GeometryRoot, res2.GeometryRoot)
	}
}

func TestEngine_FusedColorFill(t *testing.T) {
	eng := newTestEngine(t, true)
	red := vbr.Color{R: 255}
	ed := AABBEditor{LevelCount: 4, Min: nodepool.Coord{}, Max: nodepool.Coord{X: 16, Y: 16, Z: 16}, Color: red}

	res, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.GeometryRoot != nodepool.Filled {
		t.Fatalf("want Filled geometry root, got %v", res.GeometryRoot)
	}
	if res.ColorRoot.Tag() != colorpool.TagSolidColor || res.ColorRoot.Color() != red {
		t.Fatalf("want SolidColor(%v) color root, got %v", red, res.ColorRoot)
	}
}

func TestEngine_FusedColorPartialFill_AtLeafLevelProducesColorNode(t *testing.T) {
	eng := newTestEngine(t, true)
	green := vbr.Color{G: 200}
	// This box exactly matches octant 0 at level 1 = the color leaf
	// level, so the fill decision fires at the collapse boundary.
	ed := AABBEditor{LevelCount: 4, Min: nodepool.Coord{}, Max: nodepool.Coord{X: 8, Y: 8, Z: 8}, Color: green}

	res, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.GeometryRoot == nodepool.Null || res.GeometryRoot == nodepool.Filled {
		t.Fatalf("partial fill must produce a real stored node, got %v", res.GeometryRoot)
	}
	if res.ColorRoot.Tag() != colorpool.TagNode {
		t.Fatalf("mixed filled/empty octants must produce a color node, got tag %v", res.ColorRoot.Tag())
	}
}

func TestEngine_UnaffectedSubtreePreservesColorPointerIdentity(t *testing.T) {
	eng := newTestEngine(t, true)
	red := vbr.Color{R: 255}

	fill := AABBEditor{LevelCount: 4, Min: nodepool.Coord{}, Max: nodepool.Coord{X: 8, Y: 8, Z: 8}, Color: red}
	res1, err := eng.Submit(context.Background(), fill)
	if err != nil {
		t.Fatalf("Submit 1: %v", err)
	}
	eng.Nodes.SetRoot(res1.GeometryRoot)
	eng.Colors.SetRoot(res1.ColorRoot)

	// A second edit confined to a disjoint octant must leave the first
	// octant's color subtree pointer untouched (no reallocation).
	untouchedBefore := eng.Colors.Node(res1.ColorRoot)[0]

	paintElsewhere := AABBEditor{LevelCount: 4, Min: nodepool.Coord{X: 8, Y: 8, Z: 8}, Max: nodepool.Coord{X: 16, Y: 16, Z: 16}, Color: vbr.Color{B: 255}}
	res2, err := eng.Submit(context.Background(), paintElsewhere)
	if err != nil {
		t.Fatalf("Submit 2: %v", err)
	}

	untouchedAfter := eng.Colors.Node(res2.ColorRoot)[0]
	if untouchedAfter != untouchedBefore {
		t.Fatalf("untouched octant's color pointer changed: %v -> %v", untouchedBefore, untouchedAfter)
	}
}

type invalidEditor struct{}

func (invalidEditor) EditNode(level int, coord nodepool.Coord, current nodepool.Pointer) Decision {
	return Decision(99)
}
func (invalidEditor) EditVoxel(coord nodepool.Coord, current bool) bool { return current }

func TestEngine_InvalidDecisionPanics(t *testing.T) {
	eng := newTestEngine(t, false)
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on an unrecognized Decision")
		}
	}()
	_, _ = eng.Submit(context.Background(), invalidEditor{})
}
