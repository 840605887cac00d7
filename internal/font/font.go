// Package font loads 8×8 bitmap glyphs used to draw text on the cube.
//
// A font file is a sequence of glyph blocks. Each block starts with a header
// line whose second character is the glyph key ('A' for instance) followed by
// one row per cube line, top row first. Cells marked '1', '#' or 'X' are lit;
// anything else is clear. Blank lines between blocks are ignored.
package font

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/banshee-data/ledcube/internal/cube"
)

var (
	// ErrGlyphNotFound is returned by LookupByKey for keys the font does not define.
	ErrGlyphNotFound = errors.New("glyph not found")
	// ErrMalformedFont is returned when a font file cannot be parsed.
	ErrMalformedFont = errors.New("malformed font")
)

// Maximum accepted font file size.
const maxFontFileSize = 1 << 20

//go:embed alphabitmap.txt
var builtinData string

// Font maps keys to planes already oriented for PatternSetPlane on an X or Y
// plane: plane columns run along z, so glyph rows stand upright.
type Font struct {
	size   int
	glyphs map[rune]cube.Plane
}

// Size returns the glyph edge length.
func (f *Font) Size() int { return f.size }

// Len returns the number of glyphs.
func (f *Font) Len() int { return len(f.glyphs) }

// Keys returns the defined keys in ascending order.
func (f *Font) Keys() []rune {
	keys := make([]rune, 0, len(f.glyphs))
	for k := range f.glyphs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// LookupByKey returns a copy of the glyph for key.
func (f *Font) LookupByKey(key rune) (cube.Plane, error) {
	p, ok := f.glyphs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGlyphNotFound, key)
	}
	return p.Clone(), nil
}

// Has reports whether key is defined.
func (f *Font) Has(key rune) bool {
	_, ok := f.glyphs[key]
	return ok
}

// Load parses a font of cube.Dimension-sized glyphs from r.
func Load(r io.Reader) (*Font, error) {
	return LoadSize(r, cube.Dimension)
}

// LoadSize parses a font whose glyphs are size×size cells.
func LoadSize(r io.Reader, size int) (*Font, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: glyph size %d", ErrMalformedFont, size)
	}
	f := &Font{size: size, glyphs: make(map[rune]cube.Plane)}

	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimRight(sc.Text(), "\r"), true
	}

	for {
		header, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(header) == "" {
			continue
		}
		runes := []rune(header)
		if len(runes) < 2 {
			return nil, fmt.Errorf("%w: line %d: header %q has no key", ErrMalformedFont, line, header)
		}
		key := runes[1]
		if _, dup := f.glyphs[key]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate key %q", ErrMalformedFont, line, key)
		}

		glyph := cube.NewPlane(size)
		for row := 0; row < size; row++ {
			text, ok := next()
			if !ok {
				return nil, fmt.Errorf("%w: glyph %q: expected %d rows, got %d", ErrMalformedFont, key, size, row)
			}
			cells := []rune(text)
			if len(cells) > size {
				return nil, fmt.Errorf("%w: line %d: row has %d cells, max %d", ErrMalformedFont, line, len(cells), size)
			}
			for col, c := range cells {
				glyph[row][col] = lit(c)
			}
		}
		f.glyphs[key] = orient(glyph)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("%w: no glyphs", ErrMalformedFont)
	}
	return f, nil
}

// LoadFile reads a font from path. Only .txt files up to 1MB are accepted.
func LoadFile(path string) (*Font, error) {
	if ext := filepath.Ext(path); ext != ".txt" {
		return nil, fmt.Errorf("font file must have .txt extension, got %q", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat font file: %w", err)
	}
	if info.Size() > maxFontFileSize {
		return nil, fmt.Errorf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open font file: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

var (
	builtinOnce sync.Once
	builtin     *Font
)

// Builtin returns the embedded font covering space, digits and A-Z plus a
// little punctuation. Callers must not modify it.
func Builtin() *Font {
	builtinOnce.Do(func() {
		f, err := Load(strings.NewReader(builtinData))
		if err != nil {
			panic(fmt.Sprintf("font: embedded font is invalid: %v", err))
		}
		builtin = f
	})
	return builtin
}

func lit(c rune) bool {
	return c == '1' || c == '#' || c == 'X'
}

// orient turns a glyph drawn top row first into a plane whose column index
// is height: out[r][c] = glyph[N-1-c][r].
func orient(glyph cube.Plane) cube.Plane {
	p := cube.Transpose(glyph)
	cube.ReverseRows(p)
	return p
}
