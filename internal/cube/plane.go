package cube

import "strings"

// Plane is an N×N cross-section of the grid. Planes handed out by Grid are
// always copies; writing to one never touches the grid.
type Plane [][]bool

// NewPlane returns a cleared n×n plane.
func NewPlane(n int) Plane {
	p := make(Plane, n)
	cells := make([]bool, n*n)
	for i := range p {
		p[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}
	return p
}

// At returns p[r][c], or false when (r, c) is outside the plane.
func (p Plane) At(r, c int) bool {
	if r < 0 || r >= len(p) || c < 0 || c >= len(p[r]) {
		return false
	}
	return p[r][c]
}

// Clone returns a deep copy of p.
func (p Plane) Clone() Plane {
	out := NewPlane(len(p))
	for r := range p {
		copy(out[r], p[r])
	}
	return out
}

// Equal reports whether p and q hold the same cells.
func (p Plane) Equal(q Plane) bool {
	if len(p) != len(q) {
		return false
	}
	for r := range p {
		if len(p[r]) != len(q[r]) {
			return false
		}
		for c := range p[r] {
			if p[r][c] != q[r][c] {
				return false
			}
		}
	}
	return true
}

// Count returns the number of lit cells.
func (p Plane) Count() int {
	n := 0
	for _, row := range p {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

func (p Plane) String() string {
	var b strings.Builder
	for _, row := range p {
		for _, v := range row {
			if v {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Transpose returns a new plane with out[i][j] = p[j][i].
func Transpose(p Plane) Plane {
	n := len(p)
	out := NewPlane(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = p.At(j, i)
		}
	}
	return out
}

// ReverseRows reverses the order of the elements within each row, in place.
func ReverseRows(p Plane) {
	for _, row := range p {
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}

// ReverseColumns reverses the order of the rows, in place, so that row i
// swaps with row N-1-i.
func ReverseColumns(p Plane) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
