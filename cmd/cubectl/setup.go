package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/ledcube/internal/capture"
	"github.com/banshee-data/ledcube/internal/config"
	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/font"
	"github.com/banshee-data/ledcube/internal/monitoring"
	"github.com/banshee-data/ledcube/internal/serialport"
)

// loadConfig reads path, or returns the built-in defaults when path is empty.
func loadConfig(path string) (*config.CubeConfig, error) {
	if path == "" {
		return config.DefaultCubeConfig(), nil
	}
	return config.LoadCubeConfig(path)
}

// buildSink returns the cube port described by cfg, or a DisabledSink when
// no hardware is attached.
func buildSink(cfg *config.CubeConfig, disabled bool, factory serialport.SerialPortFactory, logger *log.Logger) (serialport.Sink, error) {
	if disabled {
		logger.Printf("cube output disabled, frames will be discarded")
		return serialport.NewDisabledSink(), nil
	}
	return serialport.NewCubePort(serialport.CubePortConfig{
		Path:    cfg.GetPort(),
		Options: cfg.PortOptions(),
		Factory: factory,
		Logger:  logger,
	})
}

// flushEnabled mirrors the condition used by main to start the flusher.
func flushEnabled(interval time.Duration, disable bool) bool {
	return interval > 0 && !disable
}

// loadFont returns the font at path, falling back to the built-in one.
func loadFont(path string) (*font.Font, error) {
	if path == "" {
		return font.Builtin(), nil
	}
	return font.LoadFile(path)
}

// parsePlaneSpec parses "axis:index", e.g. "z:0".
func parsePlaneSpec(s string, n int) (cube.Axis, int, error) {
	axisPart, indexPart, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("plane %q: want axis:index", s)
	}
	a, err := cube.ParseAxis(axisPart)
	if err != nil {
		return 0, 0, fmt.Errorf("plane %q: %w", s, err)
	}
	i, err := strconv.Atoi(indexPart)
	if err != nil {
		return 0, 0, fmt.Errorf("plane %q: bad index: %w", s, err)
	}
	if i < 0 || i >= n {
		return 0, 0, fmt.Errorf("plane %q: index out of range [0, %d)", s, n)
	}
	return a, i, nil
}

// replay streams a capture file to w, keeping the recorded spacing between
// frames. It returns the lit count of each frame it sent.
func replay(ctx context.Context, rp *capture.Replayer, w io.Writer) ([]int, error) {
	var (
		counts []int
		last   time.Time
	)
	for {
		f, err := rp.ReadFrame()
		if errors.Is(err, io.EOF) {
			return counts, nil
		}
		if err != nil {
			return counts, err
		}

		if !last.IsZero() {
			if gap := f.Time.Sub(last); gap > 0 {
				t := time.NewTimer(gap)
				select {
				case <-ctx.Done():
					t.Stop()
					return counts, ctx.Err()
				case <-t.C:
				}
			}
		}
		last = f.Time

		g, err := rp.Grid(f)
		if err != nil {
			monitoring.Logf("replay: skipping undecodable frame %d: %v", len(counts), err)
			continue
		}
		if _, err := w.Write(f.Payload); err != nil {
			return counts, fmt.Errorf("replay: write frame %d: %w", len(counts), err)
		}
		counts = append(counts, g.Count())
	}
}

// checkReplayCapture rejects a capture path that names the replay file:
// opening the recorder truncates it before it could be read.
func checkReplayCapture(replayPath, capturePath string) error {
	if capturePath == "" {
		return nil
	}
	same := false
	ri, rerr := os.Stat(replayPath)
	ci, cerr := os.Stat(capturePath)
	if rerr == nil && cerr == nil {
		same = os.SameFile(ri, ci)
	} else {
		ra, err1 := filepath.Abs(replayPath)
		ca, err2 := filepath.Abs(capturePath)
		same = err1 == nil && err2 == nil && ra == ca
	}
	if same {
		return fmt.Errorf("capture path %q is the replay file; it would be overwritten before replay", capturePath)
	}
	return nil
}
