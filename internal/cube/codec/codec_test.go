package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledcube/internal/cube"
)

func TestEncode_AllClear(t *testing.T) {
	out := Encode(cube.New())
	if len(out) != 64 {
		t.Fatalf("len = %d, want 64", len(out))
	}
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d = 0x%02x, want 0", i, b)
		}
	}
}

func TestEncode_FullColumnIsDoubled(t *testing.T) {
	g := cube.New()
	for z := 0; z < 8; z++ {
		g.SetVoxel(0, 1, z)
	}
	out := Encode(g)
	require.Len(t, out, 65)
	assert.Equal(t, byte(0x00), out[0])
	assert.Equal(t, []byte{0xFF, 0xFF}, out[1:3])
	assert.Equal(t, byte(0x00), out[3])
}

func TestEncode_BitOrderAndColumnOrder(t *testing.T) {
	g := cube.New()
	g.SetVoxel(0, 0, 0)
	g.SetVoxel(0, 0, 7)
	g.SetVoxel(1, 0, 2)
	g.SetVoxel(0, 3, 4)
	out := Encode(g)

	assert.Equal(t, byte(0x81), out[0], "column (0,0)")
	assert.Equal(t, byte(0x10), out[3], "column (0,3)")
	assert.Equal(t, byte(0x04), out[8], "column (1,0)")
}

func TestEncode_EntireCube(t *testing.T) {
	g := cube.New()
	g.SetEntireCube()
	out := Encode(g)
	assert.Len(t, out, 128)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 128), out)
}

func TestEscapeSequence(t *testing.T) {
	seq := EscapeSequence()
	assert.Equal(t, []byte{0xFF, 0x00}, seq)
	seq[0] = 0
	assert.Equal(t, []byte{0xFF, 0x00}, EscapeSequence(), "callers must get a fresh slice")
}

func TestFrame(t *testing.T) {
	g := cube.New()
	g.SetVoxel(2, 2, 2)
	f := Frame(g)
	require.Len(t, f, 66)
	assert.Equal(t, EscapeSequence(), f[:2])
	assert.Equal(t, Encode(g), f[2:])
}

func TestDecode_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 3, 8, 12} {
		g := cube.NewGrid(n)
		for x := 0; x < n; x++ {
			for y := 0; y < n; y++ {
				for z := 0; z < n; z++ {
					if (x+2*y+3*z)%3 == 0 || x == y {
						g.SetVoxel(x, y, z)
					}
				}
			}
		}
		got, err := Decode(Frame(g), n)
		require.NoError(t, err, "n=%d", n)
		assert.True(t, got.Equal(g), "n=%d", n)

		got, err = Decode(Encode(g), n)
		require.NoError(t, err, "n=%d", n)
		assert.True(t, got.Equal(g), "n=%d", n)
	}
}

func TestEncode_TallGridUsesTwoBytesPerColumn(t *testing.T) {
	g := cube.NewGrid(12)
	g.SetVoxel(0, 0, 9)
	out := Encode(g)
	assert.Len(t, out, 12*12*2)
	assert.Equal(t, byte(0x00), out[0])
	assert.Equal(t, byte(0x02), out[1])
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short", make([]byte, 10), ErrTruncated},
		{"lone escape at end", append(make([]byte, 63), 0xFF), ErrTruncated},
		{"control inside data", append([]byte{0x01, 0xFF, 0x00}, make([]byte, 61)...), ErrBadEscape},
		{"trailing", make([]byte, 65), ErrTrailingData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data, 8)
			if !errors.Is(err, tc.want) {
				t.Errorf("Decode() error = %v, want %v", err, tc.want)
			}
		})
	}
}
