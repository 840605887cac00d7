package cube

import (
	"errors"
	"fmt"
)

// ErrInvalidAngle is returned by RotatePlane for angles that are not a
// multiple of 90 degrees.
var ErrInvalidAngle = errors.New("rotation angle must be a multiple of 90 degrees")

// RotatePlane rotates the plane at index along a by theta degrees. theta is
// taken modulo 360, so -90 and 270 are the same turn. A rotation of 0 leaves
// the grid untouched; anything that is not a multiple of 90 returns
// ErrInvalidAngle and also leaves the grid untouched.
func (g *Grid) RotatePlane(a Axis, index, theta int) error {
	theta %= 360
	if theta < 0 {
		theta += 360
	}
	if theta%90 != 0 {
		return fmt.Errorf("rotate %v plane %d by %d: %w", a, index, theta, ErrInvalidAngle)
	}
	if theta == 0 || !a.Valid() || !g.indexInRange(index) {
		return nil
	}

	p := g.GetPlane(a, index)
	switch theta {
	case 90:
		p = Transpose(p)
		ReverseRows(p)
	case 180:
		// Two quarter turns: the transposes cancel out.
		ReverseRows(p)
		ReverseColumns(p)
	case 270:
		p = Transpose(p)
		ReverseColumns(p)
	}
	g.PatternSetPlane(a, index, p)
	return nil
}

// MirrorAlongAxis swaps plane i with plane N-1-i along a, for every i in
// the lower half. Planes are swapped whole; nothing is reflected within a
// plane.
func (g *Grid) MirrorAlongAxis(a Axis) {
	if !a.Valid() {
		return
	}
	for i := 0; i < g.n/2; i++ {
		j := g.n - 1 - i
		lo := g.GetPlane(a, i)
		hi := g.GetPlane(a, j)
		g.PatternSetPlane(a, i, hi)
		g.PatternSetPlane(a, j, lo)
	}
}

// SymmetryAlongAxis makes the grid symmetric about the mid-plane of a. With
// Origin the low half is copied over the high half; with Terminus the high
// half is copied over the low half.
func (g *Grid) SymmetryAlongAxis(a Axis, r Reflection) {
	if !a.Valid() {
		return
	}
	for i := 0; i < g.n/2; i++ {
		src, dst := i, g.n-1-i
		if r == Terminus {
			src, dst = dst, src
		}
		g.PatternSetPlane(a, dst, g.GetPlane(a, src))
	}
}

// Shift moves every plane along a by one index in direction d. With roll
// the plane pushed off one end re-enters at the other; without it the plane
// is dropped and the vacated end plane is cleared.
func (g *Grid) Shift(a Axis, d Direction, roll bool) {
	if !a.Valid() {
		return
	}
	last := g.n - 1
	if d == Forward {
		exiting := g.GetPlane(a, last)
		for i := last; i > 0; i-- {
			g.PatternSetPlane(a, i, g.GetPlane(a, i-1))
		}
		if roll {
			g.PatternSetPlane(a, 0, exiting)
		} else {
			g.ClearPlane(a, 0)
		}
		return
	}

	exiting := g.GetPlane(a, 0)
	for i := 0; i < last; i++ {
		g.PatternSetPlane(a, i, g.GetPlane(a, i+1))
	}
	if roll {
		g.PatternSetPlane(a, last, exiting)
	} else {
		g.ClearPlane(a, last)
	}
}
