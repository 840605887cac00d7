package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ledcube/internal/capture"
	"github.com/banshee-data/ledcube/internal/config"
	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/cube/codec"
	"github.com/banshee-data/ledcube/internal/effects"
	"github.com/banshee-data/ledcube/internal/serialport"
)

// TestFlagDefaults verifies the flags exist with the expected defaults.
func TestFlagDefaults(t *testing.T) {
	if effectName == nil || *effectName != "rain" {
		t.Errorf("expected effect default to be rain")
	}
	if disableCube == nil || *disableCube {
		t.Errorf("expected disable-cube default to be false")
	}
	if iterations == nil || *iterations != 0 {
		t.Errorf("expected iterations default to be 0")
	}
	if delay == nil || *delay != 0 {
		t.Errorf("expected delay default to be 0")
	}
	if plotOut == nil || *plotOut != "plane.png" {
		t.Errorf("expected plot-out default to be plane.png")
	}
}

func TestFlushEnabled(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		disable  bool
		want     bool
	}{
		{"default settings", 40 * time.Millisecond, false, true},
		{"disable flag set", 40 * time.Millisecond, true, false},
		{"zero interval", 0, false, false},
		{"negative interval", -time.Second, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flushEnabled(tt.interval, tt.disable); got != tt.want {
				t.Errorf("flushEnabled(%v, %v) = %v, want %v", tt.interval, tt.disable, got, tt.want)
			}
		})
	}
}

func TestParsePlaneSpec(t *testing.T) {
	tests := []struct {
		in        string
		wantAxis  cube.Axis
		wantIndex int
		wantErr   bool
	}{
		{"z:0", cube.Z, 0, false},
		{"X:7", cube.X, 7, false},
		{"y:3", cube.Y, 3, false},
		{"z", 0, 0, true},
		{"w:1", 0, 0, true},
		{"z:a", 0, 0, true},
		{"z:8", 0, 0, true},
		{"z:-1", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, i, err := parsePlaneSpec(tt.in, cube.Dimension)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAxis, a)
			assert.Equal(t, tt.wantIndex, i)
		})
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, cube.Dimension, cfg.GetDimension())

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBuildSink(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	cfg := config.DefaultCubeConfig()

	sink, err := buildSink(cfg, true, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &serialport.DisabledSink{}, sink)

	mockPort := serialport.NewTestableSerialPort()
	factory := serialport.NewMockSerialPortFactory(mockPort)
	sink, err = buildSink(cfg, false, factory, logger)
	require.NoError(t, err)
	require.IsType(t, &serialport.CubePort{}, sink)

	require.NoError(t, sink.Open())
	defer sink.Close()
	require.NotNil(t, factory.LastCall())
	assert.Equal(t, cfg.GetPort(), factory.LastCall().Path)

	frame := codec.Frame(cube.New())
	_, err = sink.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, frame, mockPort.GetWrittenData())
}

func TestLoadFont(t *testing.T) {
	f, err := loadFont("")
	require.NoError(t, err)
	assert.True(t, f.Has('A'))

	_, err = loadFont(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cubecap")
	clock := time.Unix(1700000000, 0)
	rec, err := capture.NewRecorder(capture.RecorderConfig{
		Path:      path,
		Dimension: cube.Dimension,
		Logger:    log.New(io.Discard, "", 0),
		Now: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
	})
	require.NoError(t, err)
	require.NoError(t, rec.Open())

	var want bytes.Buffer
	for i := 0; i < 3; i++ {
		g := cube.New()
		g.SetPlane(cube.X, i)
		frame := codec.Frame(g)
		want.Write(frame)
		_, err := rec.Write(frame)
		require.NoError(t, err)
	}
	require.NoError(t, rec.Close())

	rp, err := capture.OpenReplay(path)
	require.NoError(t, err)
	defer rp.Close()

	var got bytes.Buffer
	counts, err := replay(context.Background(), rp, &got)
	require.NoError(t, err)
	assert.Equal(t, []int{64, 64, 64}, counts)
	assert.Equal(t, want.Bytes(), got.Bytes())
}

func TestReplay_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.cubecap")
	clock := time.Unix(1700000000, 0)
	rec, err := capture.NewRecorder(capture.RecorderConfig{
		Path:      path,
		Dimension: cube.Dimension,
		Logger:    log.New(io.Discard, "", 0),
		Now: func() time.Time {
			clock = clock.Add(time.Hour)
			return clock
		},
	})
	require.NoError(t, err)
	require.NoError(t, rec.Open())
	for i := 0; i < 2; i++ {
		_, err := rec.Write(codec.Frame(cube.New()))
		require.NoError(t, err)
	}
	require.NoError(t, rec.Close())

	rp, err := capture.OpenReplay(path)
	require.NoError(t, err)
	defer rp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	counts, err := replay(ctx, rp, io.Discard)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, counts, 1)
}

func TestCheckReplayCapture(t *testing.T) {
	dir := t.TempDir()
	session := filepath.Join(dir, "session.cubecap")
	require.NoError(t, os.WriteFile(session, []byte("CUBECAP1"), 0o644))

	tests := []struct {
		name    string
		capture string
		wantErr bool
	}{
		{"no capture", "", false},
		{"different file", filepath.Join(dir, "out.cubecap"), false},
		{"same path", session, true},
		{"same file, unclean path", filepath.Join(dir, ".", "sub", "..", "session.cubecap"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkReplayCapture(session, tt.capture)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkReplayCapture(%q) err = %v, wantErr %v", tt.capture, err, tt.wantErr)
			}
		})
	}

	// The replay file is left untouched by the check.
	data, err := os.ReadFile(session)
	require.NoError(t, err)
	assert.Equal(t, "CUBECAP1", string(data))
}

// setFlag overrides a flag value for the duration of the test.
func setFlag[T any](t *testing.T, f *T, v T) {
	t.Helper()
	old := *f
	*f = v
	t.Cleanup(func() { *f = old })
}

func TestRun_BadInputsFailBeforeOpening(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.cubecap")
	setFlag(t, capturePath, out)
	setFlag(t, port, "/dev/does-not-exist")

	t.Run("unknown effect", func(t *testing.T) {
		setFlag(t, effectName, "disco")
		err := run()
		assert.ErrorIs(t, err, effects.ErrUnknownEffect)
	})
	t.Run("missing font", func(t *testing.T) {
		cfgPath := filepath.Join(dir, "cube.json")
		require.NoError(t, os.WriteFile(cfgPath, []byte(`{"font_path": "`+filepath.Join(dir, "missing.txt")+`"}`), 0o644))
		setFlag(t, configFile, cfgPath)
		err := run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load font")
	})
	t.Run("replay onto its own capture", func(t *testing.T) {
		require.NoError(t, os.WriteFile(out, []byte("CUBECAP1"), 0o644))
		t.Cleanup(func() { os.Remove(out) })
		setFlag(t, replayPath, out)
		err := run()
		require.Error(t, err)
		data, rerr := os.ReadFile(out)
		require.NoError(t, rerr)
		assert.Equal(t, "CUBECAP1", string(data), "replay file must not be truncated")
	})

	// Neither the serial port nor the recorder was ever opened.
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "capture file should not have been created")
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}
