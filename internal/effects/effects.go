// Package effects animates the shared display. Each effect draws frames
// through display.Update and sleeps between them; a FrameFlusher running
// alongside pushes the result to the cube.
package effects

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/banshee-data/ledcube/internal/display"
	"github.com/banshee-data/ledcube/internal/font"
)

// Tuning constants carried over from the Instructables cube firmware.
const (
	// TestWaveIterations is the default frame count of the wave effects.
	TestWaveIterations = 1000

	// WaveConstant is the diagonal of one 8-cube face, sqrt(7² + 7²). Ripple
	// distances are normalised against it.
	WaveConstant = 9.899495

	RippleInterval         = 1.3
	HelixBraidLengthDeltaT = 0.05
	NiceSineWaveDeltaT     = 0.75

	ComfortableBoxWoopWoopDelay = 200 * time.Millisecond
)

// ErrUnknownEffect is returned by Lookup for unregistered names.
var ErrUnknownEffect = errors.New("unknown effect")

// Options tunes a single effect run. Zero values select the effect default.
type Options struct {
	// Iterations is the number of frames (or cycles, for text and boxes)
	Iterations int
	// Delay is the pause between frames
	Delay time.Duration
	// Text is the message scrolled by the text effect
	Text string
	// Font renders Text; nil uses font.Builtin()
	Font *font.Font
	// SkipMissingGlyphs leaves a blank gap for characters the font lacks
	// instead of failing the text effect
	SkipMissingGlyphs bool
	// Rand drives random effects; nil seeds from the clock
	Rand *rand.Rand
}

func (o Options) iterations(def int) int {
	if o.Iterations > 0 {
		return o.Iterations
	}
	return def
}

func (o Options) delay(def time.Duration) time.Duration {
	if o.Delay > 0 {
		return o.Delay
	}
	return def
}

func (o Options) rand() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1))
}

func (o Options) font() *font.Font {
	if o.Font != nil {
		return o.Font
	}
	return font.Builtin()
}

// Effect draws an animation onto d until it finishes or ctx is cancelled.
type Effect func(ctx context.Context, d *display.Display, opts Options) error

var registry = map[string]Effect{
	"rain":     Rain,
	"text":     Text,
	"ripple":   Ripple,
	"sinewave": SineWave,
	"helix":    Helix,
	"boxes":    Boxes,
	"spin":     Spin,
	"sweep":    Sweep,
}

// Lookup returns the effect registered under name.
func Lookup(name string) (Effect, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEffect, name, Names())
	}
	return e, nil
}

// Names lists the registered effects in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
