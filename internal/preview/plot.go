package preview

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/ledcube/internal/cube"
)

var ledColor = color.RGBA{R: 255, G: 140, B: 26, A: 255}

// SavePlanePlot draws the lit cells of p as a square scatter (column on X,
// row on Y) and saves it to path. The format follows the file extension.
func SavePlanePlot(p cube.Plane, title, path string) error {
	n := len(p)
	if n == 0 {
		return errors.New("preview: empty plane")
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "Column"
	pl.Y.Label.Text = "Row"

	pts := make(plotter.XYs, 0, p.Count())
	for r := range p {
		for c := range p[r] {
			if p[r][c] {
				pts = append(pts, plotter.XY{X: float64(c), Y: float64(r)})
			}
		}
	}
	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to create scatter: %w", err)
		}
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		sc.GlyphStyle.Color = ledColor
		sc.GlyphStyle.Radius = vg.Points(8)
		pl.Add(sc)
	}
	pl.Add(plotter.NewGrid())

	pl.X.Min, pl.X.Max = -0.5, float64(n)-0.5
	pl.Y.Min, pl.Y.Max = -0.5, float64(n)-0.5

	if err := pl.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plane plot: %w", err)
	}
	return nil
}

// SaveActivityPlot draws the number of lit voxels per frame as a line, for
// a quick look at a recorded session.
func SaveActivityPlot(counts []int, title, path string) error {
	if len(counts) == 0 {
		return errors.New("preview: no frames to plot")
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "Frame"
	pl.Y.Label.Text = "Lit voxels"

	pts := make(plotter.XYs, len(counts))
	for i, c := range counts {
		pts[i] = plotter.XY{X: float64(i), Y: float64(c)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = ledColor
	line.Width = vg.Points(1)
	pl.Add(line)

	if err := pl.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save activity plot: %w", err)
	}
	return nil
}

// LitCounts replays a sequence of grids into per-frame lit counts.
func LitCounts(grids []*cube.Grid) []int {
	counts := make([]int, len(grids))
	for i, g := range grids {
		counts[i] = g.Count()
	}
	return counts
}
