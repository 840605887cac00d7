package effects

import (
	"context"
	"time"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/cube/raster"
	"github.com/banshee-data/ledcube/internal/display"
)

// Boxes grows nested wireframe boxes out of the centre and shrinks them
// back again. Iterations counts grow/shrink cycles.
func Boxes(ctx context.Context, d *display.Display, opts Options) error {
	cycles := opts.iterations(4)
	delay := opts.delay(ComfortableBoxWoopWoopDelay)
	n := d.Dimension()
	half := n / 2

	// Side lengths 2, 4, ... up to n, then back down.
	var sides []int
	for k := 1; k <= half; k++ {
		sides = append(sides, 2*k)
	}
	for k := half - 1; k >= 1; k-- {
		sides = append(sides, 2*k)
	}

	for i := 0; i < cycles; i++ {
		for _, side := range sides {
			corner := half - side/2
			d.Update(func(g *cube.Grid) {
				g.ClearEntireCube()
				raster.BoxWireFrame(g, cube.Pt(corner, corner, corner), side)
			})
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// Spin turns every Z plane a quarter turn per frame. An empty display is
// seeded with a slanted line so there is something to watch.
func Spin(ctx context.Context, d *display.Display, opts Options) error {
	iterations := opts.iterations(32)
	delay := opts.delay(100 * time.Millisecond)
	n := d.Dimension()

	d.Update(func(g *cube.Grid) {
		if g.Count() == 0 {
			raster.DrawLine(g, cube.Pt(0, 0, 0), cube.Pt(n-1, n/2, n-1))
		}
	})

	for i := 0; i < iterations; i++ {
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		var err error
		d.Update(func(g *cube.Grid) {
			for z := 0; z < n && err == nil; z++ {
				err = g.RotatePlane(cube.Z, z, 90)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Sweep lights the origin plane of each axis in turn and pushes it across
// the cube until it drops off the far side.
func Sweep(ctx context.Context, d *display.Display, opts Options) error {
	cycles := opts.iterations(1)
	delay := opts.delay(60 * time.Millisecond)
	n := d.Dimension()

	for i := 0; i < cycles; i++ {
		for _, a := range cube.Axes {
			d.Update(func(g *cube.Grid) {
				g.ClearEntireCube()
				g.SetPlane(a, 0)
			})
			for step := 0; step < n; step++ {
				if err := sleep(ctx, delay); err != nil {
					return err
				}
				d.Update(func(g *cube.Grid) {
					g.Shift(a, cube.Forward, false)
				})
			}
		}
	}
	return nil
}
