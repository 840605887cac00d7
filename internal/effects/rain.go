package effects

import (
	"context"
	"time"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/display"
)

// Rain drops up to three new voxels onto the top plane each frame and lets
// everything fall one plane.
func Rain(ctx context.Context, d *display.Display, opts Options) error {
	rng := opts.rand()
	iterations := opts.iterations(100)
	delay := opts.delay(90 * time.Millisecond)
	n := d.Dimension()

	for i := 0; i < iterations; i++ {
		d.Update(func(g *cube.Grid) {
			drops := rng.IntN(4)
			for j := 0; j < drops; j++ {
				g.SetVoxel(rng.IntN(n), rng.IntN(n), n-1)
			}
		})
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		d.Update(func(g *cube.Grid) {
			g.Shift(cube.Z, cube.Reverse, false)
		})
	}
	return nil
}
