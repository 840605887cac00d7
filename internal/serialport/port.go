// Package serialport owns the serial link to the cube's controller board.
//
// The controller accepts raw frame bytes (see cube/codec) and never answers,
// so the port is write-only from our side. CubePort wraps a go.bug.st/serial
// port with explicit Open/Close, a write timeout and short-write detection.
// Only one CubePort should hold a device open at a time.
package serialport

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.Writer
	io.Closer
}

// ModeSetter is implemented by ports that can be reconfigured while open.
// serial.Port satisfies it.
type ModeSetter interface {
	SetMode(mode *serial.Mode) error
}

// SerialPortFactory opens serial ports. CubePort calls it from Open so tests
// can substitute a MockSerialPortFactory.
type SerialPortFactory interface {
	Open(path string, opts PortOptions) (SerialPorter, error)
}

// SerialPortOpener adapts a plain function to SerialPortFactory.
type SerialPortOpener func(path string, opts PortOptions) (SerialPorter, error)

// Open calls f.
func (f SerialPortOpener) Open(path string, opts PortOptions) (SerialPorter, error) {
	return f(path, opts)
}

// Sink is anything that accepts encoded cube frames: the serial port, a
// capture file or a disabled placeholder.
type Sink interface {
	Open() error
	Close() error
	Configure(baudRate int, writeTimeout time.Duration) error
	Write(p []byte) (int, error)
}
