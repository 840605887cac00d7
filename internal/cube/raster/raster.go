// Package raster draws lines and simple shapes into a voxel canvas.
//
// Every function writes through Canvas and relies on the canvas ignoring
// out-of-range coordinates, so shapes may extend past the cube edge.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/ledcube/internal/cube"
)

// ErrDegenerateRectangle is returned by DrawRectangle when the two corners
// do not lie in a common plane perpendicular to the requested axis.
var ErrDegenerateRectangle = errors.New("rectangle corners do not share the axis coordinate")

// Canvas is the voxel sink the rasteriser draws into. *cube.Grid satisfies it.
type Canvas interface {
	SetVoxel(x, y, z int)
	ClearVoxel(x, y, z int)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Line returns the voxels approximating the segment from p1 to p2, starting
// at p1 and ending at p2. Segments that vary along a single axis are exact
// runs; everything else goes through 3D Bresenham.
func Line(p1, p2 cube.Point) []cube.Point {
	d := cube.Point{X: p2.X - p1.X, Y: p2.Y - p1.Y, Z: p2.Z - p1.Z}
	varying := 0
	for _, v := range []int{d.X, d.Y, d.Z} {
		if v != 0 {
			varying++
		}
	}
	if varying <= 1 {
		return axisAligned(p1, d)
	}
	return bresenham(p1, p2)
}

// axisAligned walks the single varying axis one voxel at a time.
func axisAligned(p1, d cube.Point) []cube.Point {
	n := abs(d.X) + abs(d.Y) + abs(d.Z)
	step := cube.Point{X: sign(d.X), Y: sign(d.Y), Z: sign(d.Z)}
	pts := make([]cube.Point, 0, n+1)
	p := p1
	for i := 0; i <= n; i++ {
		pts = append(pts, p)
		p = p.Add(step)
	}
	return pts
}

// bresenham steps one unit per iteration along the axis with the largest
// delta. Each secondary axis keeps an error term starting at
// 2*d_secondary - d_drive; when it goes positive the secondary axis steps
// as well.
func bresenham(p1, p2 cube.Point) []cube.Point {
	delta := [3]int{p2.X - p1.X, p2.Y - p1.Y, p2.Z - p1.Z}
	var step, ad [3]int
	for i, v := range delta {
		step[i] = sign(v)
		ad[i] = abs(v)
	}

	drive := 0
	for i := 1; i < 3; i++ {
		if ad[i] > ad[drive] {
			drive = i
		}
	}
	s1, s2 := (drive+1)%3, (drive+2)%3

	err1 := 2*ad[s1] - ad[drive]
	err2 := 2*ad[s2] - ad[drive]

	cur := [3]int{p1.X, p1.Y, p1.Z}
	pts := make([]cube.Point, 0, ad[drive]+1)
	for i := 0; i < ad[drive]; i++ {
		pts = append(pts, cube.Point{X: cur[0], Y: cur[1], Z: cur[2]})
		if err1 > 0 {
			cur[s1] += step[s1]
			err1 -= 2 * ad[drive]
		}
		if err2 > 0 {
			cur[s2] += step[s2]
			err2 -= 2 * ad[drive]
		}
		err1 += 2 * ad[s1]
		err2 += 2 * ad[s2]
		cur[drive] += step[drive]
	}
	return append(pts, cube.Point{X: cur[0], Y: cur[1], Z: cur[2]})
}

// DrawLine lights every voxel on the segment from p1 to p2.
func DrawLine(c Canvas, p1, p2 cube.Point) {
	for _, p := range Line(p1, p2) {
		c.SetVoxel(p.X, p.Y, p.Z)
	}
}

// ClearLine turns off every voxel on the segment from p1 to p2.
func ClearLine(c Canvas, p1, p2 cube.Point) {
	for _, p := range Line(p1, p2) {
		c.ClearVoxel(p.X, p.Y, p.Z)
	}
}

// DrawRectangle draws the four edges of the rectangle with opposite corners
// a and d, lying in the plane perpendicular to axis.
func DrawRectangle(c Canvas, axis cube.Axis, a, d cube.Point) error {
	if !axis.Valid() {
		return fmt.Errorf("draw rectangle: invalid axis %v", axis)
	}
	if a.Coord(axis) != d.Coord(axis) {
		return fmt.Errorf("draw rectangle %v-%v on axis %v: %w", a, d, axis, ErrDegenerateRectangle)
	}

	b, cc := a, a
	switch axis {
	case cube.X:
		b.Y, cc.Z = d.Y, d.Z
	case cube.Y:
		b.X, cc.Z = d.X, d.Z
	case cube.Z:
		b.X, cc.Y = d.X, d.Y
	}

	DrawLine(c, a, b)
	DrawLine(c, b, d)
	DrawLine(c, d, cc)
	DrawLine(c, cc, a)
	return nil
}

// DrawCircle draws a circle in the plane perpendicular to axis through
// center. The radius is the in-plane distance from center to radiusPoint,
// rounded to the nearest voxel; the axis coordinate of radiusPoint is
// ignored.
func DrawCircle(c Canvas, axis cube.Axis, center, radiusPoint cube.Point) {
	if !axis.Valid() {
		return
	}
	rowAxis, colAxis := cube.PlaneAxes(axis)
	du := float64(radiusPoint.Coord(rowAxis) - center.Coord(rowAxis))
	dv := float64(radiusPoint.Coord(colAxis) - center.Coord(colAxis))
	radius := int(math.Round(math.Hypot(du, dv)))

	index := center.Coord(axis)
	cu, cv := center.Coord(rowAxis), center.Coord(colAxis)
	plot := func(u, v int) {
		p := cube.PlanePoint(axis, index, cu+u, cv+v)
		c.SetVoxel(p.X, p.Y, p.Z)
	}

	// Midpoint circle: (a, b) walks one octant from (radius, 0).
	e := -radius
	a, b := radius, 0
	for b <= a {
		plot(a, b)
		plot(b, a)
		plot(-b, a)
		plot(-a, b)
		plot(-a, -b)
		plot(-b, -a)
		plot(b, -a)
		plot(a, -b)

		e += 2*b + 1
		b++
		if e >= 0 {
			e -= 2*a - 1
			a--
		}
	}
}

// BoxWireFrame draws the twelve edges of the axis-aligned cube whose corner
// nearest the origin is source and whose edges are sideLength voxels long.
func BoxWireFrame(c Canvas, source cube.Point, sideLength int) {
	if sideLength < 1 {
		return
	}
	s := sideLength - 1
	corner := func(dx, dy, dz int) cube.Point {
		return source.Add(cube.Point{X: dx * s, Y: dy * s, Z: dz * s})
	}
	for _, e := range boxEdges {
		DrawLine(c, corner(e[0], e[1], e[2]), corner(e[3], e[4], e[5]))
	}
}

// boxEdges lists the unit-cube edges as pairs of corner offsets.
var boxEdges = [12][6]int{
	// bottom face
	{0, 0, 0, 1, 0, 0},
	{1, 0, 0, 1, 1, 0},
	{1, 1, 0, 0, 1, 0},
	{0, 1, 0, 0, 0, 0},
	// top face
	{0, 0, 1, 1, 0, 1},
	{1, 0, 1, 1, 1, 1},
	{1, 1, 1, 0, 1, 1},
	{0, 1, 1, 0, 0, 1},
	// verticals
	{0, 0, 0, 0, 0, 1},
	{1, 0, 0, 1, 0, 1},
	{1, 1, 0, 1, 1, 1},
	{0, 1, 0, 0, 1, 1},
}
