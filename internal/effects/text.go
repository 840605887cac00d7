package effects

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/display"
	"github.com/banshee-data/ledcube/internal/monitoring"
)

// Text scrolls opts.Text through the cube one glyph at a time. Each glyph
// appears on the far X plane and is shifted toward the origin until it
// falls off. Iterations repeats the whole message. A character with no glyph
// (even in upper case) fails with font.ErrGlyphNotFound before anything is
// drawn, unless opts.SkipMissingGlyphs is set.
func Text(ctx context.Context, d *display.Display, opts Options) error {
	f := opts.font()
	repeats := opts.iterations(1)
	delay := opts.delay(100 * time.Millisecond)
	n := d.Dimension()

	text := opts.Text
	if text == "" {
		text = "HELLO"
	}

	glyphs := make([]cube.Plane, 0, len(text))
	for _, r := range text {
		p, err := f.LookupByKey(r)
		if err != nil {
			p, err = f.LookupByKey(unicode.ToUpper(r))
		}
		if err != nil {
			if !opts.SkipMissingGlyphs {
				return fmt.Errorf("text: %w", err)
			}
			monitoring.Logf("text: no glyph for %q, leaving a gap", r)
			p = cube.NewPlane(n)
		}
		glyphs = append(glyphs, p)
	}
	monitoring.Debugf("text: %d glyphs for %q", len(glyphs), strings.ToUpper(text))

	for rep := 0; rep < repeats; rep++ {
		for _, p := range glyphs {
			d.Update(func(g *cube.Grid) {
				g.PatternSetPlane(cube.X, n-1, p)
			})
			for step := 0; step < n; step++ {
				if err := sleep(ctx, delay); err != nil {
					return err
				}
				d.Update(func(g *cube.Grid) {
					g.Shift(cube.X, cube.Reverse, false)
				})
			}
		}
	}
	return nil
}
