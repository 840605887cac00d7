package display

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/banshee-data/ledcube/internal/cube/codec"
	"github.com/banshee-data/ledcube/internal/monitoring"
)

// FrameFlusher periodically encodes a snapshot of the cube and writes it to
// a sink. It provides context-aware lifecycle management for the refresh
// loop that keeps the hardware in step with the in-memory grid.
type FrameFlusher struct {
	source        Snapshotter
	sink          io.Writer
	interval      time.Duration
	prefixEscape  bool
	skipUnchanged bool
	logger        *log.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	lastHash uint64
	hasLast  bool
	written  int
	skipped  int
	failed   int
}

// FrameFlusherConfig contains configuration for FrameFlusher.
type FrameFlusherConfig struct {
	// Source supplies grid snapshots (typically a *Display)
	Source Snapshotter
	// Sink receives encoded frames (a serial port, capture file, ...)
	Sink io.Writer
	// Interval is how often to flush (e.g., 40*time.Millisecond)
	Interval time.Duration
	// PrefixEscape sends the cursor-reset sequence before each frame
	PrefixEscape bool
	// SkipUnchanged suppresses frames identical to the last one written
	SkipUnchanged bool
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// NewFrameFlusher creates a new FrameFlusher.
func NewFrameFlusher(cfg FrameFlusherConfig) *FrameFlusher {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &FrameFlusher{
		source:        cfg.Source,
		sink:          cfg.Sink,
		interval:      cfg.Interval,
		prefixEscape:  cfg.PrefixEscape,
		skipUnchanged: cfg.SkipUnchanged,
		logger:        logger,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Run starts the periodic flushing loop. It blocks until the context is
// cancelled or Stop() is called, writing one final frame on the way out.
// Returns nil on clean shutdown.
func (f *FrameFlusher) Run(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil // already running
	}
	f.running = true
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	f.mu.Unlock()

	defer func() {
		close(f.doneCh)
		f.mu.Lock()
		f.running = false
		f.mu.Unlock()
	}()

	if f.interval <= 0 {
		f.logger.Printf("FrameFlusher: interval is zero or negative, not starting")
		return nil
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Printf("FrameFlusher started: interval=%v", f.interval)

	for {
		select {
		case <-ctx.Done():
			f.logger.Printf("FrameFlusher stopping due to context cancellation")
			f.flush(true)
			return nil
		case <-f.stopCh:
			f.logger.Printf("FrameFlusher stopping due to Stop() call")
			f.flush(true)
			return nil
		case <-ticker.C:
			f.flush(false)
		}
	}
}

// Stop requests the flusher to stop. It is safe to call multiple times.
func (f *FrameFlusher) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	select {
	case <-f.stopCh:
		// already closed
	default:
		close(f.stopCh)
	}
	done := f.doneCh
	f.mu.Unlock()

	<-done
}

// IsRunning returns whether the flusher is currently running.
func (f *FrameFlusher) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// FlushNow writes the current frame immediately, outside the regular
// interval. The unchanged-frame check still applies.
func (f *FrameFlusher) FlushNow() error {
	return f.flush(false)
}

// Stats returns how many frames were written, skipped as unchanged and
// failed to write.
func (f *FrameFlusher) Stats() (written, skipped, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written, f.skipped, f.failed
}

// flush snapshots, encodes and writes a single frame. A final flush always
// writes, even when the frame is unchanged.
func (f *FrameFlusher) flush(final bool) error {
	if f.source == nil || f.sink == nil {
		return nil
	}
	g := f.source.Snapshot()

	var frame []byte
	if f.prefixEscape {
		frame = codec.Frame(g)
	} else {
		frame = codec.Encode(g)
	}
	sum := xxhash.Sum64(frame)

	f.mu.Lock()
	if f.skipUnchanged && !final && f.hasLast && sum == f.lastHash {
		f.skipped++
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if _, err := f.sink.Write(frame); err != nil {
		f.mu.Lock()
		f.failed++
		f.mu.Unlock()
		f.logger.Printf("FrameFlusher: error writing frame: %v", err)
		return err
	}

	f.mu.Lock()
	f.lastHash, f.hasLast = sum, true
	f.written++
	n := f.written
	f.mu.Unlock()

	monitoring.Debugf("frame %d written: %d bytes hash=%016x", n, len(frame), sum)
	if final {
		f.logger.Printf("FrameFlusher: final frame written (%d frames total)", n)
	}
	return nil
}
