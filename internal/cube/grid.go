package cube

import (
	"fmt"
	"strings"
)

// Dimension is the edge length of the physical cube.
const Dimension = 8

// Grid is an N×N×N block of voxels, each lit or unlit.
//
// Out-of-range coordinates are never an error: writes are ignored and reads
// return false, so rasterisers can run off the edge of the cube freely.
type Grid struct {
	n     int
	cells []bool
}

// New returns a cleared grid of the default Dimension.
func New() *Grid {
	return NewGrid(Dimension)
}

// NewGrid returns a cleared grid with edge length n. It panics if n < 1.
func NewGrid(n int) *Grid {
	if n < 1 {
		panic(fmt.Sprintf("cube: invalid grid dimension %d", n))
	}
	return &Grid{n: n, cells: make([]bool, n*n*n)}
}

// Dimension returns the edge length N of the grid.
func (g *Grid) Dimension() int { return g.n }

func (g *Grid) index(x, y, z int) int {
	return (x*g.n+y)*g.n + z
}

// InRange reports whether all three coordinates lie in [0, N).
func (g *Grid) InRange(x, y, z int) bool {
	return x >= 0 && x < g.n &&
		y >= 0 && y < g.n &&
		z >= 0 && z < g.n
}

func (g *Grid) indexInRange(i int) bool {
	return i >= 0 && i < g.n
}

// SetVoxel lights the voxel at (x, y, z).
func (g *Grid) SetVoxel(x, y, z int) {
	if g.InRange(x, y, z) {
		g.cells[g.index(x, y, z)] = true
	}
}

// ClearVoxel turns off the voxel at (x, y, z).
func (g *Grid) ClearVoxel(x, y, z int) {
	if g.InRange(x, y, z) {
		g.cells[g.index(x, y, z)] = false
	}
}

// GetVoxel reports whether the voxel at (x, y, z) is lit.
func (g *Grid) GetVoxel(x, y, z int) bool {
	if !g.InRange(x, y, z) {
		return false
	}
	return g.cells[g.index(x, y, z)]
}

// SwapVoxel toggles the voxel at (x, y, z).
func (g *Grid) SwapVoxel(x, y, z int) {
	if g.InRange(x, y, z) {
		i := g.index(x, y, z)
		g.cells[i] = !g.cells[i]
	}
}

func (g *Grid) fillPlane(a Axis, index int, v bool) {
	if !a.Valid() || !g.indexInRange(index) {
		return
	}
	m := axisTable[a]
	for r := 0; r < g.n; r++ {
		for c := 0; c < g.n; c++ {
			x, y, z := m.coords(index, r, c)
			g.cells[g.index(x, y, z)] = v
		}
	}
}

// SetPlane lights every voxel of the plane at index along a.
func (g *Grid) SetPlane(a Axis, index int) { g.fillPlane(a, index, true) }

// ClearPlane turns off every voxel of the plane at index along a.
func (g *Grid) ClearPlane(a Axis, index int) { g.fillPlane(a, index, false) }

// SetEntireCube lights every voxel.
func (g *Grid) SetEntireCube() {
	for z := 0; z < g.n; z++ {
		g.SetPlane(Z, z)
	}
}

// ClearEntireCube turns off every voxel.
func (g *Grid) ClearEntireCube() {
	for z := 0; z < g.n; z++ {
		g.ClearPlane(Z, z)
	}
}

// GetPlane returns a fresh copy of the plane at index along a. An
// out-of-range index yields an all-clear plane.
func (g *Grid) GetPlane(a Axis, index int) Plane {
	p := NewPlane(g.n)
	if !a.Valid() || !g.indexInRange(index) {
		return p
	}
	m := axisTable[a]
	for r := 0; r < g.n; r++ {
		for c := 0; c < g.n; c++ {
			x, y, z := m.coords(index, r, c)
			p[r][c] = g.cells[g.index(x, y, z)]
		}
	}
	return p
}

// PatternSetPlane writes pattern into the plane at index along a, using the
// same orientation as GetPlane. Cells missing from a short pattern are
// written as clear; cells beyond N are ignored.
func (g *Grid) PatternSetPlane(a Axis, index int, pattern Plane) {
	if !a.Valid() || !g.indexInRange(index) {
		return
	}
	m := axisTable[a]
	for r := 0; r < g.n; r++ {
		for c := 0; c < g.n; c++ {
			x, y, z := m.coords(index, r, c)
			g.cells[g.index(x, y, z)] = pattern.At(r, c)
		}
	}
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := &Grid{n: g.n, cells: make([]bool, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// CopyFrom overwrites g with the state of src. Grids of different
// dimension are copied over their common region.
func (g *Grid) CopyFrom(src *Grid) {
	if src.n == g.n {
		copy(g.cells, src.cells)
		return
	}
	g.ClearEntireCube()
	n := min(g.n, src.n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				if src.GetVoxel(x, y, z) {
					g.SetVoxel(x, y, z)
				}
			}
		}
	}
}

// Equal reports whether g and other have the same dimension and state.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.n != other.n {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

// Count returns the number of lit voxels.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.cells {
		if v {
			n++
		}
	}
	return n
}

// Lit returns the coordinates of every lit voxel, x-major.
func (g *Grid) Lit() []Point {
	var pts []Point
	for x := 0; x < g.n; x++ {
		for y := 0; y < g.n; y++ {
			for z := 0; z < g.n; z++ {
				if g.cells[g.index(x, y, z)] {
					pts = append(pts, Point{X: x, Y: y, Z: z})
				}
			}
		}
	}
	return pts
}

// String renders the grid as one block of rows per z plane, top plane first.
func (g *Grid) String() string {
	var b strings.Builder
	for z := g.n - 1; z >= 0; z-- {
		fmt.Fprintf(&b, "z=%d\n", z)
		b.WriteString(g.GetPlane(Z, z).String())
	}
	return b.String()
}
