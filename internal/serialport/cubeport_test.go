package serialport

import (
	"bytes"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/cube/codec"
)

func newTestCubePort(t *testing.T) (*CubePort, *TestableSerialPort, *MockSerialPortFactory) {
	t.Helper()
	port := NewTestableSerialPort()
	factory := NewMockSerialPortFactory(port)
	cp, err := NewCubePort(CubePortConfig{
		Path:    "/dev/ttyTEST0",
		Factory: factory,
		Logger:  log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	return cp, port, factory
}

func TestNewCubePort_Validation(t *testing.T) {
	_, err := NewCubePort(CubePortConfig{})
	assert.Error(t, err, "missing path")

	_, err = NewCubePort(CubePortConfig{Path: "/dev/x", Options: PortOptions{BaudRate: 7}})
	assert.Error(t, err, "bad baud rate")

	cp, err := NewCubePort(CubePortConfig{Path: "/dev/x"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, cp.Options().BaudRate)
	assert.False(t, cp.IsOpen())
}

func TestCubePort_OpenWriteClose(t *testing.T) {
	cp, port, factory := newTestCubePort(t)

	require.NoError(t, cp.Open())
	assert.True(t, cp.IsOpen())
	assert.ErrorIs(t, cp.Open(), ErrPortOpen)

	call := factory.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, "/dev/ttyTEST0", call.Path)
	assert.Equal(t, 9600, call.Options.BaudRate)

	g := cube.New()
	g.SetVoxel(0, 0, 0)
	require.NoError(t, cp.WriteFrame(g))
	assert.Equal(t, codec.Frame(g), port.GetWrittenData())

	require.NoError(t, cp.Close())
	assert.True(t, port.Closed)
	assert.False(t, cp.IsOpen())
	assert.NoError(t, cp.Close(), "closing twice is a no-op")
}

func TestCubePort_WriteWhenClosed(t *testing.T) {
	cp, _, _ := newTestCubePort(t)
	_, err := cp.Write([]byte{1})
	assert.ErrorIs(t, err, ErrPortClosed)
}

func TestCubePort_OpenError(t *testing.T) {
	cp, _, factory := newTestCubePort(t)
	factory.Error = errors.New("no such device")
	err := cp.Open()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such device")
	assert.False(t, cp.IsOpen())
}

func TestCubePort_WriteErrors(t *testing.T) {
	cp, port, _ := newTestCubePort(t)
	require.NoError(t, cp.Open())
	defer cp.Close()

	boom := errors.New("boom")
	port.WriteError = boom
	_, err := cp.Write([]byte{1, 2, 3})
	assert.ErrorIs(t, err, boom)

	port.ShortWrite = true
	n, err := cp.Write([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Equal(t, 2, n)
}

func TestCubePort_WriteTimeout(t *testing.T) {
	cp, port, _ := newTestCubePort(t)
	require.NoError(t, cp.Configure(9600, 20*time.Millisecond))
	require.NoError(t, cp.Open())
	defer cp.Close()

	port.WriteLatency = 200 * time.Millisecond
	start := time.Now()
	_, err := cp.Write([]byte{0xAA})
	assert.ErrorIs(t, err, ErrWriteTimeout)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

// stalledPort blocks every Write until release is closed and records how
// many writes were in progress at once.
type stalledPort struct {
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
	mu      sync.Mutex
	written bytes.Buffer
}

func (s *stalledPort) Write(p []byte) (int, error) {
	s.calls.Add(1)
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written.Write(p)
}

func (s *stalledPort) Close() error { return nil }

func TestCubePort_WriteTimeoutKeepsSingleWriter(t *testing.T) {
	sp := &stalledPort{release: make(chan struct{})}
	cp, err := NewCubePort(CubePortConfig{
		Path:    "/dev/ttyTEST2",
		Options: PortOptions{WriteTimeout: 10 * time.Millisecond},
		Factory: SerialPortOpener(func(string, PortOptions) (SerialPorter, error) { return sp, nil }),
		Logger:  log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	require.NoError(t, cp.Open())
	defer cp.Close()

	for i := 0; i < 3; i++ {
		_, err := cp.Write([]byte{byte(i)})
		assert.ErrorIs(t, err, ErrWriteTimeout, "write %d", i)
	}
	assert.EqualValues(t, 1, sp.calls.Load(), "pending write must block later ones")
	assert.EqualValues(t, 1, sp.peak.Load())

	// Once the stalled write returns the port accepts writes again.
	close(sp.release)
	require.Eventually(t, func() bool {
		_, err := cp.Write([]byte{0xFF})
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, sp.peak.Load())

	sp.mu.Lock()
	defer sp.mu.Unlock()
	assert.Equal(t, []byte{0, 0xFF}, sp.written.Bytes())
}

func TestCubePort_ConfigureWhileOpen(t *testing.T) {
	cp, port, _ := newTestCubePort(t)
	require.NoError(t, cp.Open())
	defer cp.Close()

	require.NoError(t, cp.Configure(115200, time.Second))
	require.Len(t, port.Modes, 1)
	assert.Equal(t, 115200, port.Modes[0].BaudRate)
	assert.Equal(t, 115200, cp.Options().BaudRate)
	assert.Equal(t, time.Second, cp.Options().WriteTimeout)

	// Same baud rate: nothing to push to the device.
	require.NoError(t, cp.Configure(115200, 2*time.Second))
	assert.Len(t, port.Modes, 1)

	assert.Error(t, cp.Configure(31337, time.Second))
	assert.Equal(t, 115200, cp.Options().BaudRate, "failed Configure must not change options")
}

// writeOnlyPort has no SetMode, so baud changes cannot be applied live.
type writeOnlyPort struct{ bytes.Buffer }

func (w *writeOnlyPort) Close() error { return nil }

func TestCubePort_ConfigureUnsupported(t *testing.T) {
	cp, err := NewCubePort(CubePortConfig{
		Path:    "/dev/ttyTEST1",
		Factory: SerialPortOpener(func(string, PortOptions) (SerialPorter, error) { return &writeOnlyPort{}, nil }),
		Logger:  log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	require.NoError(t, cp.Configure(19200, 0), "closed port just records the setting")
	require.NoError(t, cp.Open())
	assert.Error(t, cp.Configure(38400, 0))
}

func TestDisabledSink(t *testing.T) {
	var s Sink = NewDisabledSink()
	require.NoError(t, s.Open())
	require.NoError(t, s.Configure(9600, time.Second))
	n, err := s.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, s.Close())

	writes, b := s.(*DisabledSink).Stats()
	assert.Equal(t, 1, writes)
	assert.Equal(t, 3, b)
}
