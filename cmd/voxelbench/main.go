// Command voxelbench sweeps edit-region sizes against the paged octree
// pools, samples memory and GC pressure, and writes a CSV and PNG chart
// of the results. It mirrors the teacher's main.go/benchmark.go/workload.go
// trio, adapted from a B-tree degree sweep to a voxel edit-region sweep.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/editor"
	"github.com/voxeldag/voxeldag/dbms/gc"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

func main() {
	f, err := os.Create("voxelbench_results.csv")
	if err != nil {
		fmt.Println("voxelbench:", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"World", "RegionSide", "Operation", "LatencyNs", "MemMB", "HeapObjects"})

	worldLevels := []int{6, 8}
	regionFractions := []float64{0.125, 0.5, 1.0} // fraction of world side per edit cube

	var points []SweepPoint
	for _, lvl := range worldLevels {
		for _, frac := range regionFractions {
			p := runSweep(w, lvl, frac)
			points = append(points, p)
		}
	}
	w.Flush()

	if err := PlotDedupRatio(points, "voxelbench_dedup.png"); err != nil {
		fmt.Println("voxelbench: plot:", err)
	}
	fmt.Println("voxelbench complete. voxelbench_results.csv and voxelbench_dedup.png written.")
}

// SweepPoint is one (world, region-size) data point carried from the
// sweep into the final dedup-ratio chart.
type SweepPoint struct {
	WorldLevel int
	RegionSide int
	NodeCount  int
	VoxelCount int64
}

func runSweep(w *csv.Writer, levelCount int, regionFraction float64) SweepPoint {
	cfg := worldConfig(levelCount)
	colorCfg := worldColorConfig(levelCount)
	fmt.Printf("Sweeping world L=%d, region fraction %.3f\n", levelCount, regionFraction)

	nodes, err := nodepool.New(cfg, nil)
	if err != nil {
		fmt.Println("voxelbench:", err)
		os.Exit(1)
	}
	colors, err := colorpool.New(colorCfg, nil)
	if err != nil {
		fmt.Println("voxelbench:", err)
		os.Exit(1)
	}
	eng, err := editor.NewEngine(nodes, colors, 4, nil)
	if err != nil {
		fmt.Println("voxelbench:", err)
		os.Exit(1)
	}

	worldSide := 1 << uint(levelCount)
	regionSide := int(float64(worldSide) * regionFraction)
	if regionSide < 1 {
		regionSide = 1
	}

	timer := newStopwatch()
	ed := editor.AABBEditor{
		LevelCount: levelCount,
		Min:        nodepool.Coord{X: 0, Y: 0, Z: 0},
		Max:        nodepool.Coord{X: regionSide, Y: regionSide, Z: regionSide},
		Color:      vbr.Color{R: 128, G: 64, B: 32},
	}
	res, err := eng.Submit(context.Background(), ed)
	if err != nil {
		fmt.Println("voxelbench:", err)
		os.Exit(1)
	}
	nodes.SetRoot(res.GeometryRoot)
	colors.SetRoot(res.ColorRoot)
	fillLatency := timer.lapNs()

	stats := GetDetailedMem()
	Record(w, BenchResult{
		World:     fmt.Sprintf("L%d", levelCount),
		Region:    fmt.Sprintf("%d", regionSide),
		Operation: "Fill",
		LatencyNs: fillLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})

	timer.lap()
	gcStats, err := gc.Collect(eng, 4, nil)
	if err != nil {
		fmt.Println("voxelbench: gc:", err)
		os.Exit(1)
	}
	gcLatency := timer.lapNs()
	stats = GetDetailedMem()
	Record(w, BenchResult{
		World:     fmt.Sprintf("L%d", levelCount),
		Region:    fmt.Sprintf("%d", regionSide),
		Operation: "GC",
		LatencyNs: gcLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})

	verifyVoxels(eng, ed, regionSide)

	timer.lap()
	if err := ExecuteWorkload(context.Background(), eng, levelCount, ManySmall, 20); err != nil {
		fmt.Println("voxelbench: workload:", err)
		os.Exit(1)
	}
	workloadLatency := timer.lapNs() / 20
	stats = GetDetailedMem()
	Record(w, BenchResult{
		World:     fmt.Sprintf("L%d", levelCount),
		Region:    fmt.Sprintf("%d", regionSide),
		Operation: "Workload_ManySmall",
		LatencyNs: workloadLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})

	return SweepPoint{
		WorldLevel: levelCount,
		RegionSide: regionSide,
		NodeCount:  gcStats.ReachableNodes,
		VoxelCount: int64(regionSide) * int64(regionSide) * int64(regionSide),
	}
}

// verifyVoxels spot-checks that the region's corners and center read
// back as filled, using nodepool.VoxelAt — the same accessor
// dbms/gc's tests use to verify GC preserves voxel content.
func verifyVoxels(eng *editor.Engine, ed editor.AABBEditor, regionSide int) {
	corners := []nodepool.Coord{
		{X: 0, Y: 0, Z: 0},
		{X: regionSide - 1, Y: regionSide - 1, Z: regionSide - 1},
		{X: regionSide / 2, Y: regionSide / 2, Z: regionSide / 2},
	}
	for _, c := range corners {
		if !eng.Nodes.VoxelAt(eng.Nodes.Root(), c) {
			fmt.Printf("voxelbench: WARNING voxel %v expected filled, read empty\n", c)
		}
	}
}

func worldConfig(levelCount int) nodepool.Config {
	return nodepool.Config{
		LevelCount:               levelCount,
		TopLevelCount:            2,
		WordBitsPerPage:          8,
		PageBitsPerBucket:        1,
		BucketBitsPerTopLevel:    4,
		BucketBitsPerBottomLevel: 8,
	}
}

func worldColorConfig(levelCount int) colorpool.Config {
	return colorpool.Config{
		LeafLevel:           levelCount - 3,
		NodeBitsPerNodePage: 6,
		WordBitsPerLeafPage: 10,
		NodePageCount:       64,
		LeafPageCount:       64,
	}
}
