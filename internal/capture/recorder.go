// Package capture records the frame stream sent to the cube so it can be
// replayed or inspected without hardware.
//
// A capture file is an 8-byte magic "CUBECAP1", a version byte, the cube
// dimension byte and a 16-byte session UUID, followed by a zstd stream of
// records. Each record is the write time in Unix nanoseconds (int64), the
// payload length (uint32) and the payload, all little-endian.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const (
	Magic   = "CUBECAP1"
	Version = 1

	headerSize = len(Magic) + 2 + 16
	recordHead = 8 + 4

	// MaxRecordSize bounds a single payload; frames are a few hundred bytes.
	MaxRecordSize = 1 << 20
)

var (
	ErrNotOpen          = errors.New("capture: recorder not open")
	ErrAlreadyOpen      = errors.New("capture: recorder already open")
	ErrBadMagic         = errors.New("capture: not a cube capture file")
	ErrBadVersion       = errors.New("capture: unsupported version")
	ErrRecordTooLarge   = errors.New("capture: record too large")
	ErrInvalidDimension = errors.New("capture: invalid dimension")
)

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// Path is the capture file to create (truncated if it exists)
	Path string
	// Dimension is stored in the header so replays decode correctly
	Dimension int
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
	// Now is optional; defaults to time.Now
	Now func() time.Time
}

// Recorder writes every frame it receives to a capture file. It satisfies
// serialport.Sink so it can stand in for, or sit beside, the cube port.
type Recorder struct {
	path    string
	dim     int
	logger  *log.Logger
	now     func() time.Time
	session uuid.UUID

	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	frames int
	bytes  int64
}

// NewRecorder validates cfg and returns a closed recorder with a fresh
// session id.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Path == "" {
		return nil, errors.New("capture: path is required")
	}
	if cfg.Dimension < 1 || cfg.Dimension > 255 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, cfg.Dimension)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		path:    cfg.Path,
		dim:     cfg.Dimension,
		logger:  logger,
		now:     now,
		session: uuid.New(),
	}, nil
}

// Session returns the id written into the file header.
func (r *Recorder) Session() uuid.UUID { return r.session }

// Path returns the capture file path.
func (r *Recorder) Path() string { return r.path }

// Open creates the file and writes the header.
func (r *Recorder) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f != nil {
		return ErrAlreadyOpen
	}

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	if err := writeHeader(f, r.dim, r.session); err != nil {
		f.Close()
		return fmt.Errorf("failed to write capture header: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to start zstd stream: %w", err)
	}
	r.f = f
	r.enc = enc
	r.frames = 0
	r.bytes = 0
	r.logger.Printf("capture: recording session %s to %s", r.session, r.path)
	return nil
}

// Configure is a no-op; a file has no line settings.
func (r *Recorder) Configure(int, time.Duration) error { return nil }

// Write appends p as one record.
func (r *Recorder) Write(p []byte) (int, error) {
	if len(p) > MaxRecordSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(p))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return 0, ErrNotOpen
	}

	var head [recordHead]byte
	binary.LittleEndian.PutUint64(head[0:8], uint64(r.now().UnixNano()))
	binary.LittleEndian.PutUint32(head[8:12], uint32(len(p)))
	if _, err := r.enc.Write(head[:]); err != nil {
		return 0, fmt.Errorf("capture: write record header: %w", err)
	}
	if _, err := r.enc.Write(p); err != nil {
		return 0, fmt.Errorf("capture: write record payload: %w", err)
	}
	r.frames++
	r.bytes += int64(len(p))
	return len(p), nil
}

// Close flushes the zstd stream and closes the file. Closing a closed
// recorder is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	encErr := r.enc.Close()
	fileErr := r.f.Close()
	r.enc = nil
	r.f = nil
	r.logger.Printf("capture: closed %s after %d frames (%d bytes)", r.path, r.frames, r.bytes)
	if encErr != nil {
		return fmt.Errorf("failed to finish zstd stream: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close capture file: %w", fileErr)
	}
	return nil
}

// Stats returns the frames and payload bytes recorded since Open.
func (r *Recorder) Stats() (frames int, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames, r.bytes
}

func writeHeader(w io.Writer, dim int, session uuid.UUID) error {
	hdr := make([]byte, 0, headerSize)
	hdr = append(hdr, Magic...)
	hdr = append(hdr, Version, byte(dim))
	hdr = append(hdr, session[:]...)
	_, err := w.Write(hdr)
	return err
}
