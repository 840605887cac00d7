// Command cubectl drives an LED voxel cube over a serial link: it runs an
// effect on the in-memory grid while a background flusher streams frames to
// the controller board, and can record, replay and preview sessions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/ledcube/internal/capture"
	"github.com/banshee-data/ledcube/internal/cube"
	"github.com/banshee-data/ledcube/internal/display"
	"github.com/banshee-data/ledcube/internal/effects"
	"github.com/banshee-data/ledcube/internal/font"
	"github.com/banshee-data/ledcube/internal/monitoring"
	"github.com/banshee-data/ledcube/internal/preview"
	"github.com/banshee-data/ledcube/internal/serialport"
	"github.com/banshee-data/ledcube/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to JSON config file (defaults built in)")
	port        = flag.String("port", "", "Serial port to use (overrides config)")
	disableCube = flag.Bool("disable-cube", false, "Discard frames instead of opening the serial port")
	devMode     = flag.Bool("dev", false, "Alias for --disable-cube")
	capturePath = flag.String("capture", "", "Record every frame sent to this capture file (overrides config)")
	replayPath  = flag.String("replay", "", "Replay a capture file to the cube instead of running an effect")
	effectName  = flag.String("effect", "rain", "Effect to run (see --list-effects)")
	text        = flag.String("text", "", "Message for the text effect")
	skipMissing = flag.Bool("skip-missing-glyphs", false, "Leave a gap for characters the font lacks instead of failing")
	iterations  = flag.Int("iterations", 0, "Effect frame count (0 uses the effect default)")
	delay       = flag.Duration("delay", 0, "Pause between effect frames (0 uses the effect default)")
	exportGLB   = flag.String("export-glb", "", "Write the final frame as a binary glTF model")
	plotPlane   = flag.String("plot-plane", "", "Plane to plot after the run, as axis:index (e.g. z:0)")
	plotOut     = flag.String("plot-out", "plane.png", "Output path for --plot-plane")
	activityOut = flag.String("activity-plot", "", "With --replay, plot lit voxels per frame to this path")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	listEffects = flag.Bool("list-effects", false, "List effects and exit")
	debug       = flag.Bool("debug", false, "Enable per-frame debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*debug)

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so that deferred Close calls release the
// port and finish the capture file on every error path.
func run() error {
	if *showVersion {
		fmt.Println("cubectl", version.String())
		return nil
	}
	if *listPorts {
		ports, err := serialport.ListPorts()
		if err != nil {
			return fmt.Errorf("failed to list serial ports: %w", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}
	if *listEffects {
		for _, name := range effects.Names() {
			fmt.Println(name)
		}
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *port != "" {
		cfg.Port = port
	}
	if *capturePath != "" {
		cfg.CapturePath = capturePath
	}
	n := cfg.GetDimension()

	// Validate everything that can fail cheaply before the device is opened
	// and the capture file truncated.
	var (
		effect effects.Effect
		f      *font.Font
	)
	if *replayPath != "" {
		if err := checkReplayCapture(*replayPath, cfg.GetCapturePath()); err != nil {
			return err
		}
	} else {
		if effect, err = effects.Lookup(*effectName); err != nil {
			return err
		}
		if f, err = loadFont(cfg.GetFontPath()); err != nil {
			return fmt.Errorf("failed to load font: %w", err)
		}
	}

	logger := log.Default()
	sink, err := buildSink(cfg, *disableCube || *devMode, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create cube sink: %w", err)
	}
	if err := sink.Open(); err != nil {
		return fmt.Errorf("failed to open cube sink: %w", err)
	}
	defer sink.Close()

	var out io.Writer = sink
	if path := cfg.GetCapturePath(); path != "" {
		rec, err := capture.NewRecorder(capture.RecorderConfig{Path: path, Dimension: n, Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to create recorder: %w", err)
		}
		if err := rec.Open(); err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer rec.Close()
		out = io.MultiWriter(sink, rec)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *replayPath != "" {
		return runReplay(ctx, *replayPath, out)
	}

	d := display.New(cube.NewGrid(n))
	flusher := display.NewFrameFlusher(display.FrameFlusherConfig{
		Source:        d,
		Sink:          out,
		Interval:      cfg.GetFlushInterval(),
		PrefixEscape:  cfg.GetPrefixEscape(),
		SkipUnchanged: cfg.GetSkipUnchanged(),
		Logger:        logger,
	})

	// The flusher gets its own context so it can be wound down (with a final
	// frame) once the effect returns, even if no signal arrived.
	flushCtx, stopFlush := context.WithCancel(ctx)
	defer stopFlush()

	var wg sync.WaitGroup
	flushing := flushEnabled(cfg.GetFlushInterval(), cfg.GetFlushDisable())
	if flushing {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := flusher.Run(flushCtx); err != nil {
				log.Printf("frame flusher error: %v", err)
			}
			log.Print("frame flusher terminated")
		}()
	} else {
		log.Printf("frame flushing disabled; a single frame is written when the effect ends")
	}

	log.Printf("cubectl %s: running effect %q on a %d-cube", version.String(), *effectName, n)
	start := time.Now()
	err = effect(ctx, d, effects.Options{
		Iterations:        *iterations,
		Delay:             *delay,
		Text:              *text,
		Font:              f,
		SkipMissingGlyphs: *skipMissing,
	})
	switch {
	case errors.Is(err, context.Canceled):
		log.Printf("effect interrupted after %v", time.Since(start).Round(time.Millisecond))
	case err != nil:
		log.Printf("effect %q failed: %v", *effectName, err)
	default:
		log.Printf("effect %q finished in %v", *effectName, time.Since(start).Round(time.Millisecond))
	}

	if flushing {
		stopFlush()
		wg.Wait()
	} else if err := flusher.FlushNow(); err != nil {
		log.Printf("final frame write failed: %v", err)
	}

	written, skipped, failed := flusher.Stats()
	log.Printf("frames written=%d skipped=%d failed=%d", written, skipped, failed)

	exportPreviews(d.Snapshot())
	log.Printf("Graceful shutdown complete")
	return nil
}

func runReplay(ctx context.Context, path string, out io.Writer) error {
	rp, err := capture.OpenReplay(path)
	if err != nil {
		return fmt.Errorf("failed to open replay: %w", err)
	}
	defer rp.Close()
	log.Printf("replaying session %s (%d-cube) from %s", rp.Session(), rp.Dimension(), path)

	counts, err := replay(ctx, rp, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("replay stopped: %v", err)
	}
	log.Printf("replayed %d frames", len(counts))

	if *activityOut != "" && len(counts) > 0 {
		if err := preview.SaveActivityPlot(counts, "Session "+rp.Session().String(), *activityOut); err != nil {
			log.Printf("failed to write activity plot: %v", err)
		} else {
			log.Printf("wrote activity plot to %s", *activityOut)
		}
	}
	return nil
}

func exportPreviews(g *cube.Grid) {
	if *exportGLB != "" {
		fh, err := os.Create(*exportGLB)
		if err != nil {
			log.Printf("failed to create %s: %v", *exportGLB, err)
		} else {
			if err := preview.WriteGLB(g, fh); err != nil {
				log.Printf("failed to export glb: %v", err)
			}
			if err := fh.Close(); err != nil {
				log.Printf("failed to close %s: %v", *exportGLB, err)
			}
			log.Printf("wrote final frame to %s", *exportGLB)
		}
	}

	if *plotPlane != "" {
		a, i, err := parsePlaneSpec(*plotPlane, g.Dimension())
		if err != nil {
			log.Printf("skipping plane plot: %v", err)
			return
		}
		title := fmt.Sprintf("%s plane %d", a, i)
		if err := preview.SavePlanePlot(g.GetPlane(a, i), title, *plotOut); err != nil {
			log.Printf("failed to plot plane: %v", err)
			return
		}
		log.Printf("wrote %s to %s", title, *plotOut)
	}
}
