package serialport

import (
	"sync"
	"time"
)

// DisabledSink is a no-op Sink used when no cube hardware is attached (for
// --disable-cube). Writes are counted and discarded so effects can run
// headless.
type DisabledSink struct {
	mu     sync.Mutex
	open   bool
	writes int
	bytes  int
}

func NewDisabledSink() *DisabledSink {
	return &DisabledSink{}
}

func (d *DisabledSink) Open() error {
	d.mu.Lock()
	d.open = true
	d.mu.Unlock()
	return nil
}

func (d *DisabledSink) Close() error {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
	return nil
}

func (d *DisabledSink) Configure(int, time.Duration) error { return nil }

func (d *DisabledSink) Write(p []byte) (int, error) {
	d.mu.Lock()
	d.writes++
	d.bytes += len(p)
	d.mu.Unlock()
	return len(p), nil
}

// Stats returns the number of writes and bytes discarded so far.
func (d *DisabledSink) Stats() (writes, bytes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes, d.bytes
}
