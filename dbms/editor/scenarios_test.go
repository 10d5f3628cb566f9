package editor_test

import (
	"context"
	"testing"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/editor"
	"github.com/voxeldag/voxeldag/dbms/gc"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// This file runs the six worked scenarios of spec.md §8 against a 16³
// world (level_count=4, leaf_level=0) verbatim, one test per scenario,
// each building on the previous scenario's resulting world exactly as
// the spec describes.

func scenarioNodeConfig() nodepool.Config {
	return nodepool.Config{
		LevelCount:               4,
		TopLevelCount:            1,
		WordBitsPerPage:          6,
		PageBitsPerBucket:        1,
		BucketBitsPerTopLevel:    2,
		BucketBitsPerBottomLevel: 3,
	}
}

func scenarioColorConfig() colorpool.Config {
	return colorpool.Config{
		LeafLevel:           0,
		NodeBitsPerNodePage: 3,
		WordBitsPerLeafPage: 8,
		NodePageCount:       4,
		// A single VBR leaf spans all 4096 voxels at leaf level 0; its
		// macro-block table alone is 512*3 words, so the leaf store needs
		// more than a handful of 256-word pages.
		LeafPageCount: 64,
	}
}

func newScenarioEngine(t *testing.T) *editor.Engine {
	t.Helper()
	nodes, err := nodepool.New(scenarioNodeConfig(), nil)
	if err != nil {
		t.Fatalf("nodepool.New: %v", err)
	}
	colors, err := colorpool.New(scenarioColorConfig(), nil)
	if err != nil {
		t.Fatalf("colorpool.New: %v", err)
	}
	eng, err := editor.NewEngine(nodes, colors, 8, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func submit(t *testing.T, eng *editor.Engine, ed editor.Editor) editor.Result {
	t.Helper()
	res, err := eng.Submit(context.Background(), ed)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	eng.Nodes.SetRoot(res.GeometryRoot)
	eng.Colors.SetRoot(res.ColorRoot)
	return res
}

var (
	red  = vbr.Color{R: 255}
	blue = vbr.Color{B: 255}
)

// Scenario 1: fill AABB [(0,0,0),(16,16,16)) red. root = Filled, color
// root = SolidColor(red), zero stored nodes.
func TestScenario1_FullWorldFillRed(t *testing.T) {
	eng := newScenarioEngine(t)
	submit(t, eng, editor.AABBEditor{
		LevelCount: 4,
		Min:        nodepool.Coord{X: 0, Y: 0, Z: 0},
		Max:        nodepool.Coord{X: 16, Y: 16, Z: 16},
		Color:      red,
	})

	if eng.Nodes.Root() != nodepool.Filled {
		t.Fatalf("want root = Filled, got %v", eng.Nodes.Root())
	}
	if tag := eng.Colors.Root().Tag(); tag != colorpool.TagSolidColor {
		t.Fatalf("want color root tag SolidColor, got %v", tag)
	}
	if c := eng.Colors.Root().Color(); c != red {
		t.Fatalf("want color root = red, got %v", c)
	}

	stats, err := gc.Collect(eng, 8, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.ReachableNodes != 0 {
		t.Fatalf("want 0 stored nodes for an all-Filled world, got %d", stats.ReachableNodes)
	}
}

// Scenario 2 (following 1): clear sphere center (8,8,8) r=4. root is
// neither Filled nor Null; (8,8,8) reads 0; (0,0,0) and (15,15,15) read
// 1 red.
func TestScenario2_ClearSphereFromFilledRed(t *testing.T) {
	eng := newScenarioEngine(t)
	submit(t, eng, editor.AABBEditor{
		LevelCount: 4,
		Min:        nodepool.Coord{X: 0, Y: 0, Z: 0},
		Max:        nodepool.Coord{X: 16, Y: 16, Z: 16},
		Color:      red,
	})
	submit(t, eng, editor.SphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     4,
		Clearing:   true,
	})

	if eng.Nodes.Root() == nodepool.Filled || eng.Nodes.Root() == nodepool.Null {
		t.Fatalf("want root neither Filled nor Null, got %v", eng.Nodes.Root())
	}
	if eng.Nodes.VoxelAt(eng.Nodes.Root(), nodepool.Coord{X: 8, Y: 8, Z: 8}) {
		t.Fatal("want (8,8,8) to read empty after clearing")
	}
	for _, c := range []nodepool.Coord{{X: 0, Y: 0, Z: 0}, {X: 15, Y: 15, Z: 15}} {
		if !eng.Nodes.VoxelAt(eng.Nodes.Root(), c) {
			t.Fatalf("want %v to read occupied, got empty", c)
		}
	}
}

// Scenario 3 (following 2): paint sphere center (8,8,8) r=6 blue. Shell
// 4 < d <= 6 reads blue; d <= 4 still reads 0; d > 6 still reads red.
func TestScenario3_PaintShellBlue(t *testing.T) {
	eng := newScenarioEngine(t)
	submit(t, eng, editor.AABBEditor{
		LevelCount: 4,
		Min:        nodepool.Coord{X: 0, Y: 0, Z: 0},
		Max:        nodepool.Coord{X: 16, Y: 16, Z: 16},
		Color:      red,
	})
	submit(t, eng, editor.SphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     4,
		Clearing:   true,
	})
	submit(t, eng, editor.PaintSphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     6,
		Color:      blue,
	})

	center := nodepool.Coord{X: 8, Y: 8, Z: 8}
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				c := nodepool.Coord{X: x, Y: y, Z: z}
				d := sqDist(c, center)
				occ := eng.Nodes.VoxelAt(eng.Nodes.Root(), c)
				switch {
				case d <= 16: // d <= 4 (squared)
					if occ {
						t.Fatalf("voxel %v (d^2=%d) want empty, got occupied", c, d)
					}
				case d <= 36: // 4 < d <= 6 (squared)
					if !occ {
						t.Fatalf("voxel %v (d^2=%d) want occupied blue, got empty", c, d)
					}
					if got := colorAt(eng, c); got != blue {
						t.Fatalf("voxel %v: want blue, got %v", c, got)
					}
				default:
					if !occ {
						t.Fatalf("voxel %v (d^2=%d) want occupied red, got empty", c, d)
					}
					if got := colorAt(eng, c); got != red {
						t.Fatalf("voxel %v: want red, got %v", c, got)
					}
				}
			}
		}
	}
}

func sqDist(a, b nodepool.Coord) int {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

// colorAt reads back the color stored for an occupied voxel. With
// colorCfg.LeafLevel == 0 the color root is always Null, SolidColor, or
// a single VBRLeaf spanning the whole world (a Node tag only appears
// above the leaf level), so decoding it never needs to descend.
func colorAt(eng *editor.Engine, c nodepool.Coord) vbr.Color {
	root := eng.Colors.Root()
	switch root.Tag() {
	case colorpool.TagSolidColor:
		return root.Color()
	case colorpool.TagVBRLeaf:
		chunk := eng.Colors.Leaf(root)
		return chunk.At(scenarioMortonIndex(c.X, c.Y, c.Z))
	default:
		return vbr.Color{}
	}
}

// scenarioMortonIndex interleaves x/y/z (z-y-x major, MSB first) across
// the 16³ world's 4 bits per axis, matching dbms/editor's internal
// mortonIndex convention for a single whole-world VBR chunk.
func scenarioMortonIndex(x, y, z int) int {
	idx := 0
	for b := 3; b >= 0; b-- {
		zb := (z >> uint(b)) & 1
		yb := (y >> uint(b)) & 1
		xb := (x >> uint(b)) & 1
		idx = idx<<3 | zb<<2 | yb<<1 | xb
	}
	return idx
}

// Scenario 4: fill the same AABB twice. The second edit returns a root
// pointer equal to the first's.
func TestScenario4_RepeatedIdenticalFillIsIdempotent(t *testing.T) {
	eng := newScenarioEngine(t)
	ed := editor.AABBEditor{
		LevelCount: 4,
		Min:        nodepool.Coord{X: 1, Y: 1, Z: 1},
		Max:        nodepool.Coord{X: 9, Y: 9, Z: 9},
		Color:      red,
	}
	first := submit(t, eng, ed)
	second := submit(t, eng, ed)

	if second.GeometryRoot != first.GeometryRoot {
		t.Fatalf("want identical root on repeated fill, got %v vs %v", first.GeometryRoot, second.GeometryRoot)
	}
	if second.ColorRoot != first.ColorRoot {
		t.Fatalf("want identical color root on repeated fill, got %v vs %v", first.ColorRoot, second.ColorRoot)
	}
}

// Scenario 5: two disjoint AABBs filled in opposite orders produce
// identical root pointers.
func TestScenario5_DisjointFillOrderIsCommutative(t *testing.T) {
	a := editor.AABBEditor{LevelCount: 4, Min: nodepool.Coord{X: 0, Y: 0, Z: 0}, Max: nodepool.Coord{X: 4, Y: 4, Z: 4}, Color: red}
	b := editor.AABBEditor{LevelCount: 4, Min: nodepool.Coord{X: 8, Y: 8, Z: 8}, Max: nodepool.Coord{X: 12, Y: 12, Z: 12}, Color: red}

	engAB := newScenarioEngine(t)
	submit(t, engAB, a)
	resAB := submit(t, engAB, b)

	engBA := newScenarioEngine(t)
	submit(t, engBA, b)
	resBA := submit(t, engBA, a)

	if resAB.GeometryRoot != resBA.GeometryRoot {
		t.Fatalf("want order-independent root, got %v vs %v", resAB.GeometryRoot, resBA.GeometryRoot)
	}
	if resAB.ColorRoot != resBA.ColorRoot {
		t.Fatalf("want order-independent color root, got %v vs %v", resAB.ColorRoot, resBA.ColorRoot)
	}
}

// Scenario 6 (following 3): GC preserves voxel-by-voxel content, and the
// post-GC live node count does not exceed a freshly-built equivalent
// world's count by more than 5%.
func TestScenario6_GCPreservesContentAndBoundsNodeCount(t *testing.T) {
	eng := newScenarioEngine(t)
	submit(t, eng, editor.AABBEditor{
		LevelCount: 4,
		Min:        nodepool.Coord{X: 0, Y: 0, Z: 0},
		Max:        nodepool.Coord{X: 16, Y: 16, Z: 16},
		Color:      red,
	})
	submit(t, eng, editor.SphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     4,
		Clearing:   true,
	})
	submit(t, eng, editor.PaintSphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     6,
		Color:      blue,
	})

	before := make(map[nodepool.Coord]bool)
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				c := nodepool.Coord{X: x, Y: y, Z: z}
				before[c] = eng.Nodes.VoxelAt(eng.Nodes.Root(), c)
			}
		}
	}

	stats, err := gc.Collect(eng, 8, nil)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	for c, want := range before {
		if got := eng.Nodes.VoxelAt(eng.Nodes.Root(), c); got != want {
			t.Fatalf("voxel %v: want %v, got %v after GC", c, want, got)
		}
	}

	// Build an equivalent world fresh (same edits, no prior GC) as the
	// "equivalent freshly-built world" baseline.
	fresh := newScenarioEngine(t)
	submit(t, fresh, editor.AABBEditor{
		LevelCount: 4,
		Min:        nodepool.Coord{X: 0, Y: 0, Z: 0},
		Max:        nodepool.Coord{X: 16, Y: 16, Z: 16},
		Color:      red,
	})
	submit(t, fresh, editor.SphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     4,
		Clearing:   true,
	})
	submit(t, fresh, editor.PaintSphereEditor{
		LevelCount: 4,
		Center:     nodepool.Coord{X: 8, Y: 8, Z: 8},
		Radius:     6,
		Color:      blue,
	})
	freshStats, err := gc.Collect(fresh, 8, nil)
	if err != nil {
		t.Fatalf("Collect (fresh baseline): %v", err)
	}

	limit := float64(freshStats.ReachableNodes) * 1.05
	if float64(stats.ReachableNodes) > limit {
		t.Fatalf("post-GC node count %d exceeds fresh baseline %d by more than 5%%", stats.ReachableNodes, freshStats.ReachableNodes)
	}
}
