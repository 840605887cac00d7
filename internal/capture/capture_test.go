package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/cube/codec"
	"github.com/banshee-data/ledcube/internal/serialport"
)

var _ serialport.Sink = (*Recorder)(nil)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// steppingClock returns start, start+1s, start+2s, ...
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Second)
		return t
	}
}

func newTestRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.cubecap")
	rec, err := NewRecorder(RecorderConfig{
		Path:      path,
		Dimension: cube.Dimension,
		Logger:    quietLogger(),
		Now:       steppingClock(time.Unix(1700000000, 0)),
	})
	require.NoError(t, err)
	return rec, path
}

func TestNewRecorder_Validation(t *testing.T) {
	_, err := NewRecorder(RecorderConfig{Dimension: 8})
	assert.Error(t, err)

	_, err = NewRecorder(RecorderConfig{Path: "x", Dimension: 0})
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = NewRecorder(RecorderConfig{Path: "x", Dimension: 300})
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestRecordAndReplay(t *testing.T) {
	rec, path := newTestRecorder(t)
	require.NoError(t, rec.Open())

	var grids []*cube.Grid
	for i := 0; i < 3; i++ {
		g := cube.New()
		g.SetPlane(cube.Z, i)
		g.SetVoxel(7, 7, 7)
		grids = append(grids, g)
		n, err := rec.Write(codec.Frame(g))
		require.NoError(t, err)
		assert.Equal(t, len(codec.Frame(g)), n)
	}
	frames, _ := rec.Stats()
	assert.Equal(t, 3, frames)
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "second close is a no-op")

	rp, err := OpenReplay(path)
	require.NoError(t, err)
	defer rp.Close()

	assert.Equal(t, cube.Dimension, rp.Dimension())
	assert.Equal(t, rec.Session(), rp.Session())

	for i, want := range grids {
		f, err := rp.ReadFrame()
		require.NoError(t, err, "frame %d", i)
		assert.Equal(t, time.Unix(1700000000+int64(i), 0).UnixNano(), f.Time.UnixNano())

		got, err := rp.Grid(f)
		require.NoError(t, err)
		if !want.Equal(got) {
			t.Errorf("frame %d decoded to a different grid", i)
		}
	}

	_, err = rp.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecorder_EmptySession(t *testing.T) {
	rec, path := newTestRecorder(t)
	require.NoError(t, rec.Open())
	require.NoError(t, rec.Close())

	rp, err := OpenReplay(path)
	require.NoError(t, err)
	defer rp.Close()

	_, err = rp.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecorder_Lifecycle(t *testing.T) {
	rec, _ := newTestRecorder(t)

	_, err := rec.Write([]byte{1})
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, rec.Open())
	assert.ErrorIs(t, rec.Open(), ErrAlreadyOpen)
	assert.NoError(t, rec.Configure(115200, time.Second))

	_, err = rec.Write(make([]byte, MaxRecordSize+1))
	assert.ErrorIs(t, err, ErrRecordTooLarge)

	require.NoError(t, rec.Close())
	_, err = rec.Write([]byte{1})
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestRecorder_ReopenTruncates(t *testing.T) {
	rec, path := newTestRecorder(t)
	require.NoError(t, rec.Open())
	_, err := rec.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	require.NoError(t, rec.Open())
	require.NoError(t, rec.Close())

	rp, err := OpenReplay(path)
	require.NoError(t, err)
	defer rp.Close()
	_, err = rp.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReplayer_BadHeader(t *testing.T) {
	valid := func() []byte {
		var buf bytes.Buffer
		require.NoError(t, writeHeader(&buf, cube.Dimension, uuid.New()))
		return buf.Bytes()
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrBadMagic},
		{"short", []byte("CUBE"), ErrBadMagic},
		{"wrong magic", append([]byte("NOTACUBE"), valid()[8:]...), ErrBadMagic},
		{"wrong version", func() []byte { b := valid(); b[8] = 9; return b }(), ErrBadVersion},
		{"zero dimension", func() []byte { b := valid(); b[9] = 0; return b }(), ErrInvalidDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReplayer(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReplayer_TruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, cube.Dimension, uuid.New()))
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	// The record claims 20 payload bytes but carries only 5.
	head := make([]byte, recordHead)
	binary.LittleEndian.PutUint32(head[8:], 20)
	_, err = enc.Write(append(head, 1, 2, 3, 4, 5))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	rp, err := NewReplayer(&buf)
	require.NoError(t, err)
	defer rp.Close()
	_, err = rp.ReadFrame()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestOpenReplay_Missing(t *testing.T) {
	_, err := OpenReplay(filepath.Join(t.TempDir(), "missing.cubecap"))
	assert.Error(t, err)
}
