package serialport

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/cube/codec"
)

var (
	ErrWriteFailed  = fmt.Errorf("failed to write to serial port")
	ErrWriteTimeout = errors.New("serial write timed out")
	ErrPortClosed   = errors.New("serial port is not open")
	ErrPortOpen     = errors.New("serial port is already open")
)

// CubePortConfig contains configuration for CubePort.
type CubePortConfig struct {
	// Path is the device path, e.g. /dev/ttyUSB0.
	Path string
	// Options are the line settings; zero values take the defaults.
	Options PortOptions
	// Factory opens the device. Defaults to RealSerialPortFactory.
	Factory SerialPortFactory
	// Logger is optional; if nil, uses log.Default().
	Logger *log.Logger
}

// CubePort is the Sink that drives the controller board over a serial line.
type CubePort struct {
	path    string
	factory SerialPortFactory
	logger  *log.Logger

	mu   sync.Mutex
	opts PortOptions
	port SerialPorter
	// inflight is closed when the device write started by Write returns.
	// It stays set after a timeout so no second write reaches the device
	// while the first is still blocked.
	inflight chan struct{}
}

// NewCubePort validates cfg and returns a closed port.
func NewCubePort(cfg CubePortConfig) (*CubePort, error) {
	if cfg.Path == "" {
		return nil, errors.New("serial port path is required")
	}
	opts, err := cfg.Options.Normalise()
	if err != nil {
		return nil, fmt.Errorf("invalid port options: %w", err)
	}
	factory := cfg.Factory
	if factory == nil {
		factory = RealSerialPortFactory{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &CubePort{
		path:    cfg.Path,
		factory: factory,
		logger:  logger,
		opts:    opts,
	}, nil
}

// Path returns the device path.
func (p *CubePort) Path() string { return p.path }

// Options returns the normalised line settings currently in effect.
func (p *CubePort) Options() PortOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// IsOpen reports whether the device is held open.
func (p *CubePort) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port != nil
}

// Open acquires the device. Opening an open port returns ErrPortOpen.
func (p *CubePort) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port != nil {
		return ErrPortOpen
	}
	port, err := p.factory.Open(p.path, p.opts)
	if err != nil {
		return fmt.Errorf("failed to open cube port: %w", err)
	}
	p.port = port
	p.logger.Printf("cube port %s opened at %d baud", p.path, p.opts.BaudRate)
	return nil
}

// Close releases the device. Closing a closed port is a no-op.
func (p *CubePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	p.inflight = nil
	if err != nil {
		return fmt.Errorf("failed to close cube port: %w", err)
	}
	p.logger.Printf("cube port %s closed", p.path)
	return nil
}

// Configure changes the baud rate and write timeout. When the port is open
// and supports ModeSetter the new baud rate is applied immediately;
// otherwise it takes effect on the next Open.
func (p *CubePort) Configure(baudRate int, writeTimeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.opts
	next.BaudRate = baudRate
	next.WriteTimeout = writeTimeout
	next, err := next.Normalise()
	if err != nil {
		return fmt.Errorf("configure cube port: %w", err)
	}

	if p.port != nil && next.BaudRate != p.opts.BaudRate {
		setter, ok := p.port.(ModeSetter)
		if !ok {
			return fmt.Errorf("configure cube port: open port cannot change baud rate")
		}
		mode, err := next.SerialMode()
		if err != nil {
			return err
		}
		if err := setter.SetMode(mode); err != nil {
			return fmt.Errorf("configure cube port: %w", err)
		}
	}
	p.opts = next
	return nil
}

// Write sends b to the controller. It fails with ErrWriteTimeout if the
// device does not accept the bytes within the configured write timeout and
// with ErrWriteFailed on a short write. A timed-out write keeps the device
// busy: later calls fail with ErrWriteTimeout until it returns, so only one
// write is ever outstanding on the device.
func (p *CubePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return 0, ErrPortClosed
	}
	if p.inflight != nil {
		select {
		case <-p.inflight:
			p.inflight = nil
		default:
			return 0, fmt.Errorf("write to %s: previous write still pending: %w", p.path, ErrWriteTimeout)
		}
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	finished := make(chan struct{})
	port := p.port
	go func() {
		defer close(finished)
		n, err := port.Write(b)
		done <- result{n, err}
	}()

	timer := time.NewTimer(p.opts.WriteTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return r.n, fmt.Errorf("write to %s: %w", p.path, r.err)
		}
		if r.n != len(b) {
			return r.n, ErrWriteFailed
		}
		return r.n, nil
	case <-timer.C:
		p.inflight = finished
		return 0, fmt.Errorf("write %d bytes to %s after %v: %w", len(b), p.path, p.opts.WriteTimeout, ErrWriteTimeout)
	}
}

// WriteFrame encodes g and writes it, preceded by the cursor-reset escape
// sequence.
func (p *CubePort) WriteFrame(g *cube.Grid) error {
	_, err := p.Write(codec.Frame(g))
	return err
}
