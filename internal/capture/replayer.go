package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/cube/codec"
)

// Frame is one recorded write.
type Frame struct {
	Time    time.Time
	Payload []byte
}

// Replayer reads frames back from a capture stream.
type Replayer struct {
	dim     int
	session uuid.UUID
	dec     *zstd.Decoder
	closer  io.Closer
}

// NewReplayer reads the header from r and prepares to stream records.
func NewReplayer(r io.Reader) (*Replayer, error) {
	br := bufio.NewReader(r)
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(br, hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short header", ErrBadMagic)
		}
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if string(hdr[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}
	if v := hdr[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	dim := int(hdr[len(Magic)+1])
	if dim < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	session, err := uuid.FromBytes(hdr[len(Magic)+2:])
	if err != nil {
		return nil, fmt.Errorf("failed to parse session id: %w", err)
	}
	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	return &Replayer{dim: dim, session: session, dec: dec}, nil
}

// OpenReplay opens the capture file at path.
func OpenReplay(path string) (*Replayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	r, err := NewReplayer(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Dimension returns the cube edge length recorded in the header.
func (r *Replayer) Dimension() int { return r.dim }

// Session returns the recording session id.
func (r *Replayer) Session() uuid.UUID { return r.session }

// ReadFrame returns the next frame, or io.EOF after the last one. A stream
// cut off mid-record yields io.ErrUnexpectedEOF.
func (r *Replayer) ReadFrame() (Frame, error) {
	var head [recordHead]byte
	if _, err := io.ReadFull(r.dec, head[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("capture: read record header: %w", err)
	}
	nanos := int64(binary.LittleEndian.Uint64(head[0:8]))
	size := binary.LittleEndian.Uint32(head[8:12])
	if size > MaxRecordSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.dec, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("capture: read record payload: %w", err)
	}
	return Frame{Time: time.Unix(0, nanos), Payload: payload}, nil
}

// Grid decodes a recorded frame into a grid of the capture's dimension.
func (r *Replayer) Grid(f Frame) (*cube.Grid, error) {
	return codec.Decode(f.Payload, r.dim)
}

// Close releases the decoder and, for OpenReplay, the file.
func (r *Replayer) Close() error {
	r.dec.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
