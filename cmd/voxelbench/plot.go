package main

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var seriesColors = []color.Color{
	color.RGBA{R: 200, A: 255},
	color.RGBA{G: 150, A: 255},
	color.RGBA{B: 200, A: 255},
	color.RGBA{R: 180, G: 120, A: 255},
}

// PlotDedupRatio renders a PNG scatter of voxel count vs. reachable
// node count across the sweep: the flatter the curve, the more
// structural sharing the hash-consed octree is finding for a given
// edit-region shape.
func PlotDedupRatio(points []SweepPoint, path string) error {
	p := plot.New()
	p.Title.Text = "voxeldag dedup ratio"
	p.X.Label.Text = "voxel count"
	p.Y.Label.Text = "reachable nodes"

	byWorld := make(map[int]plotter.XYs)
	for _, pt := range points {
		byWorld[pt.WorldLevel] = append(byWorld[pt.WorldLevel], plotter.XY{
			X: float64(pt.VoxelCount),
			Y: float64(pt.NodeCount),
		})
	}

	i := 0
	for world, xys := range byWorld {
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("voxelbench: plot series for L%d: %w", world, err)
		}
		line.Color = seriesColors[i%len(seriesColors)]
		points.Color = line.Color
		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("L%d", world), line, points)
		i++
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
