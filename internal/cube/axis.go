package cube

import (
	"fmt"
	"strings"
)

// Axis selects the dimension held fixed when a plane is taken from the grid.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Axes lists every axis in order.
var Axes = []Axis{X, Y, Z}

func (a Axis) String() string {
	switch a {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Valid reports whether a is one of X, Y or Z.
func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

// ParseAxis accepts "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "Y":
		return Y, nil
	case "Z":
		return Z, nil
	}
	return 0, fmt.Errorf("unknown axis %q: expected x, y or z", s)
}

// Direction of a shift, relative to the origin→terminus ordering of an axis.
type Direction int

const (
	// Forward moves every plane one index toward the terminus.
	Forward Direction = iota
	// Reverse moves every plane one index toward the origin.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// Reflection picks which half of an axis wins in SymmetryAlongAxis.
type Reflection int

const (
	Origin Reflection = iota
	Terminus
)

func (r Reflection) String() string {
	if r == Terminus {
		return "terminus"
	}
	return "origin"
}

// Point is a lattice coordinate used by the shape rasteriser.
type Point struct {
	X, Y, Z int
}

// Pt is shorthand for Point{x, y, z}.
func Pt(x, y, z int) Point { return Point{X: x, Y: y, Z: z} }

// Add returns the component-wise sum of p and q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Coord returns the component of p along a.
func (p Point) Coord(a Axis) int {
	switch a {
	case X:
		return p.X
	case Y:
		return p.Y
	default:
		return p.Z
	}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// axisMapping maps a plane cell (r, c) at a given index along an axis to a
// grid coordinate. Every plane operation goes through this table, so
// GetPlane and PatternSetPlane cannot drift apart.
//
//	axis  x      y      z
//	X     index  r      c
//	Y     r      index  c
//	Z     r      c      index
type axisMapping struct {
	coords func(index, r, c int) (x, y, z int)
	// free lists the two axes spanned by the plane, as (row axis, column axis).
	free [2]Axis
}

var axisTable = [...]axisMapping{
	X: {
		coords: func(i, r, c int) (int, int, int) { return i, r, c },
		free:   [2]Axis{Y, Z},
	},
	Y: {
		coords: func(i, r, c int) (int, int, int) { return r, i, c },
		free:   [2]Axis{X, Z},
	},
	Z: {
		coords: func(i, r, c int) (int, int, int) { return r, c, i },
		free:   [2]Axis{X, Y},
	},
}

// PlaneAxes returns the grid axes that a plane on a spans, as (row, column).
func PlaneAxes(a Axis) (row, col Axis) {
	m := axisTable[a]
	return m.free[0], m.free[1]
}

// PlanePoint converts a plane cell at (r, c) on plane index i of axis a back
// to a grid point.
func PlanePoint(a Axis, i, r, c int) Point {
	x, y, z := axisTable[a].coords(i, r, c)
	return Point{X: x, Y: y, Z: z}
}
