// Package display shares one cube grid between the goroutine that draws
// effects and the goroutine that pushes frames to the hardware.
package display

import (
	"sync"

	"github.com/banshee-data/ledcube/internal/cube"
)

// Snapshotter hands out independent copies of the current grid state.
type Snapshotter interface {
	Snapshot() *cube.Grid
}

// Display guards a grid with a mutex. Effects mutate it with Update while a
// FrameFlusher encodes Snapshot copies in the background.
type Display struct {
	mu   sync.Mutex
	grid *cube.Grid
	gen  uint64
}

// New wraps g. The Display takes ownership; callers must not keep using g
// directly.
func New(g *cube.Grid) *Display {
	return &Display{grid: g}
}

// Dimension returns the edge length of the underlying grid.
func (d *Display) Dimension() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid.Dimension()
}

// Update runs fn with exclusive access to the grid. fn must not retain g.
func (d *Display) Update(fn func(g *cube.Grid)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.grid)
	d.gen++
}

// Snapshot returns a deep copy of the grid.
func (d *Display) Snapshot() *cube.Grid {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid.Clone()
}

// Generation counts the Update calls made so far.
func (d *Display) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}
