package effects

import (
	"context"
	"math"
	"time"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/display"
)

// height maps v in [-1, 1] onto a plane index in [0, n-1].
func height(v float64, n int) int {
	c := float64(n-1) / 2
	z := int(math.Round(c + v*c))
	return min(max(z, 0), n-1)
}

// Ripple draws a surface whose height is a sine of the distance from the
// vertical centre line, so rings spread outward over time.
func Ripple(ctx context.Context, d *display.Display, opts Options) error {
	iterations := opts.iterations(TestWaveIterations)
	delay := opts.delay(30 * time.Millisecond)
	n := d.Dimension()
	c := float64(n-1) / 2
	// WaveConstant is the face diagonal of the 8-cube; scale it to n.
	diagonal := WaveConstant * float64(n-1) / float64(cube.Dimension-1)

	for i := 0; i < iterations; i++ {
		t := float64(i) / 50
		d.Update(func(g *cube.Grid) {
			g.ClearEntireCube()
			for x := 0; x < n; x++ {
				for y := 0; y < n; y++ {
					dist := math.Hypot(c-float64(x), c-float64(y)) / diagonal * float64(n)
					g.SetVoxel(x, y, height(math.Sin(dist/RippleInterval+t), n))
				}
			}
		})
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// SineWave draws a sine sheet running along x and advancing by
// NiceSineWaveDeltaT per frame.
func SineWave(ctx context.Context, d *display.Display, opts Options) error {
	iterations := opts.iterations(TestWaveIterations)
	delay := opts.delay(50 * time.Millisecond)
	n := d.Dimension()
	step := 2 * math.Pi / float64(n)

	for i := 0; i < iterations; i++ {
		phase := float64(i) * NiceSineWaveDeltaT
		d.Update(func(g *cube.Grid) {
			g.ClearEntireCube()
			for x := 0; x < n; x++ {
				z := height(math.Sin(phase+float64(x)*step), n)
				for y := 0; y < n; y++ {
					g.SetVoxel(x, y, z)
				}
			}
		})
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Helix draws two interleaved strands that make one full turn over the
// cube height and twist by HelixBraidLengthDeltaT turns per frame.
func Helix(ctx context.Context, d *display.Display, opts Options) error {
	iterations := opts.iterations(TestWaveIterations)
	delay := opts.delay(30 * time.Millisecond)
	n := d.Dimension()
	pitch := 2 * math.Pi / float64(n)

	for i := 0; i < iterations; i++ {
		phase := float64(i) * HelixBraidLengthDeltaT * 2 * math.Pi
		d.Update(func(g *cube.Grid) {
			g.ClearEntireCube()
			for z := 0; z < n; z++ {
				a := phase + float64(z)*pitch
				for _, off := range [2]float64{0, math.Pi} {
					g.SetVoxel(height(math.Cos(a+off), n), height(math.Sin(a+off), n), z)
				}
			}
		})
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}
