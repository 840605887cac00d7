// Package codec converts a cube.Grid to and from the byte stream understood
// by the cube's controller board.
//
// Wire format: one byte per (x, y) column, x outer and y inner, with bit z
// set when voxel (x, y, z) is lit. Grids taller than eight voxels use
// ceil(N/8) bytes per column, lowest z first. 0xFF is the controller's
// escape byte, so a data byte of 0xFF is sent twice. The escape followed by
// 0x00 resets the controller's draw cursor to the origin.
package codec

import (
	"errors"
	"fmt"

	"github.com/banshee-data/ledcube/internal/cube"
)

const (
	// EscapeByte marks an out-of-band control sequence on the wire.
	EscapeByte byte = 0xFF
	// ResetCursor follows EscapeByte to send the draw cursor to the origin.
	ResetCursor byte = 0x00
)

var (
	ErrTruncated    = errors.New("frame truncated")
	ErrBadEscape    = errors.New("unexpected control sequence in frame data")
	ErrTrailingData = errors.New("trailing bytes after frame")
)

// EscapeSequence returns the two-byte "reset cursor" control sequence.
func EscapeSequence() []byte {
	return []byte{EscapeByte, ResetCursor}
}

// BytesPerColumn returns how many bytes one (x, y) column of an n-tall grid
// occupies before escaping.
func BytesPerColumn(n int) int {
	return (n + 7) / 8
}

// Encode packs g into wire bytes, doubling every 0xFF.
func Encode(g *cube.Grid) []byte {
	return AppendEncode(nil, g)
}

// AppendEncode appends the encoding of g to dst and returns the extended
// slice.
func AppendEncode(dst []byte, g *cube.Grid) []byte {
	n := g.Dimension()
	per := BytesPerColumn(n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for b := 0; b < per; b++ {
				var row byte
				for bit := 0; bit < 8; bit++ {
					if g.GetVoxel(x, y, b*8+bit) {
						row |= 1 << bit
					}
				}
				dst = append(dst, row)
				if row == EscapeByte {
					dst = append(dst, row)
				}
			}
		}
	}
	return dst
}

// Frame returns the escape sequence followed by the encoding of g: the full
// payload written to the controller for one refresh.
func Frame(g *cube.Grid) []byte {
	return AppendEncode(EscapeSequence(), g)
}

// Decode rebuilds an n-dimensional grid from wire bytes produced by Encode
// or Frame.
func Decode(data []byte, n int) (*cube.Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("decode: invalid dimension %d", n)
	}
	if len(data) >= 2 && data[0] == EscapeByte && data[1] == ResetCursor {
		data = data[2:]
	}

	g := cube.NewGrid(n)
	per := BytesPerColumn(n)
	pos := 0
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for b := 0; b < per; b++ {
				if pos >= len(data) {
					return nil, fmt.Errorf("decode column (%d,%d) at offset %d: %w", x, y, pos, ErrTruncated)
				}
				row := data[pos]
				pos++
				if row == EscapeByte {
					if pos >= len(data) {
						return nil, fmt.Errorf("decode column (%d,%d) at offset %d: %w", x, y, pos, ErrTruncated)
					}
					if data[pos] != EscapeByte {
						return nil, fmt.Errorf("decode column (%d,%d): escape followed by 0x%02x: %w", x, y, data[pos], ErrBadEscape)
					}
					pos++
				}
				for bit := 0; bit < 8; bit++ {
					if row&(1<<bit) != 0 {
						g.SetVoxel(x, y, b*8+bit)
					}
				}
			}
		}
	}
	if pos != len(data) {
		return nil, fmt.Errorf("decode: %d bytes left over: %w", len(data)-pos, ErrTrailingData)
	}
	return g, nil
}
