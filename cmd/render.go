package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gsplat/internal/offload"
	"github.com/cwbudde/gsplat/internal/scene"
	"github.com/cwbudde/gsplat/internal/splat"
	"github.com/cwbudde/gsplat/internal/surface"
	"github.com/cwbudde/gsplat/internal/transport"
)

var (
	splatCount int
	inputPath  string
	serialDev  string
	useOffload bool
	seed       int64
	maxFrames  int
	dumpFrames bool
	benchmark  bool
	verbose    bool
	regime     string
	saveScene  string

	surfWidth  int
	surfHeight int
	surfBPP    int
	fbDevice   string

	cpuProfile string
	memProfile string
)

const statsInterval = 30

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run the render loop",
	Long: `Renders the splat scene with an orbiting camera onto the framebuffer,
falling back to an in-memory surface with PPM dumps when no framebuffer
is available.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&splatCount, "count", 10000, "Number of generated test splats")
	renderCmd.Flags().StringVar(&inputPath, "input-path", "", "Load splats from a packed image or .json scene")
	renderCmd.Flags().StringVar(&serialDev, "serial-device", "", "Read splats from a serial device (e.g. /dev/ttyS0)")
	renderCmd.Flags().BoolVar(&useOffload, "offload", false, "Hand tiles to the accelerator fabric")
	renderCmd.Flags().Int64Var(&seed, "seed", 42, "Animation and test-data seed")
	renderCmd.Flags().IntVar(&maxFrames, "frames", 0, "Exit after N frames (0 = run until interrupted; headless runs stop after 5)")
	renderCmd.Flags().BoolVar(&dumpFrames, "dump-frames", false, "Write per-frame PPM images")
	renderCmd.Flags().BoolVar(&benchmark, "benchmark", false, "Render 100 frames and print a timing summary")
	renderCmd.Flags().BoolVar(&verbose, "verbose", false, "Extra diagnostics")
	renderCmd.Flags().StringVar(&regime, "regime", "float", "Rasterizer numeric regime: float, fixed")
	renderCmd.Flags().StringVar(&saveScene, "save-scene", "", "Save the loaded scene as JSON before rendering")

	renderCmd.Flags().IntVar(&surfWidth, "width", 640, "Headless surface width")
	renderCmd.Flags().IntVar(&surfHeight, "height", 480, "Headless surface height")
	renderCmd.Flags().IntVar(&surfBPP, "bpp", 32, "Headless surface depth (16 or 32)")
	renderCmd.Flags().StringVar(&fbDevice, "fb-device", "/dev/fb0", "Framebuffer device")

	renderCmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	renderCmd.Flags().StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(renderCmd)
}

// loadSplats fills the store from the configured source. Transport
// errors are non-fatal: the store falls back to generated test data.
func loadSplats(st *splat.Store) {
	switch {
	case serialDev != "":
		f, err := transport.OpenSerial(serialDev)
		if err != nil {
			slog.Warn("serial unavailable, using test splats", "error", err)
			break
		}
		defer f.Close()
		slog.Info("waiting for splat data", "device", serialDev)
		if _, err := transport.ReadSplats(f, st); err != nil {
			slog.Warn("serial receive failed, using test splats", "error", err)
			break
		}
		return

	case inputPath != "":
		var err error
		if strings.EqualFold(filepath.Ext(inputPath), ".json") {
			_, err = scene.Load(inputPath, st)
		} else {
			_, err = transport.LoadPacked(inputPath, st)
		}
		if err != nil {
			slog.Warn("scene load failed, using test splats", "error", err)
			break
		}
		return
	}

	splat.GenerateTestSplats(st, splatCount, seed)
	slog.Info("generated test splats", "count", st.Len(), "seed", seed)
}

func runRender(cmd *cobra.Command, args []string) error {
	if verbose {
		setupLogger(slog.LevelDebug)
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "output", cpuProfile)
	}

	if benchmark {
		maxFrames = 100
	}

	// Surface: framebuffer if it's there, in-memory otherwise.
	var dst splat.Surface
	headless := false
	fb, err := surface.OpenFramebuffer(fbDevice)
	if err != nil {
		slog.Warn("no framebuffer, rendering headless", "error", err)
		mem, err := surface.NewMemory(surfWidth, surfHeight, surfBPP)
		if err != nil {
			return err
		}
		dst = mem
		headless = true
	} else {
		defer fb.Close()
		dst = fb
	}

	if headless && maxFrames == 0 {
		maxFrames = 5
	}

	st := splat.NewStore(splat.DefaultMaxSplats)
	loadSplats(st)

	if saveScene != "" {
		if err := scene.Save(saveScene, st); err != nil {
			return err
		}
	}

	if useOffload && splat.NormalizeRegime(regime) != splat.RegimeFixed {
		slog.Info("offload requires the fixed regime, switching")
		regime = string(splat.RegimeFixed)
	}

	renderer, err := splat.NewRenderer(regime)
	if err != nil {
		return err
	}

	var dev *offload.Device
	if useOffload {
		dev, err = offload.Open()
		if err != nil {
			return err
		}
		defer dev.Close()
	}

	cam := splat.NewCamera(60, dst.Width(), dst.Height())

	slog.Info("render loop starting",
		"splats", st.Len(),
		"surface", fmt.Sprintf("%dx%d @ %d bpp", dst.Width(), dst.Height(), dst.BPP()),
		"tiles", fmt.Sprintf("%dx%d px", splat.TileW, splat.TileH),
		"regime", renderer.Regime(),
		"kernel", splat.ActiveRasterBackend,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	interval := statsInterval
	if benchmark {
		interval = maxFrames
	}

	offloadOK := dev != nil
	frame := 0
	start := time.Now()

	for {
		select {
		case <-sigCh:
			slog.Info("interrupted, finishing current frame")
			maxFrames = frame + 1
		default:
		}

		splat.OrbitCamera(cam, frame)

		if offloadOK {
			t0 := time.Now()
			splat.Project(st, cam, dst.Width(), dst.Height(), true)
			t1 := time.Now()
			splat.Sort(st)
			t2 := time.Now()
			if err := dev.Render(st, dst.Width(), dst.Height()); err != nil {
				slog.Warn("offload failed, falling back to CPU", "error", err)
				offloadOK = false
			}
			renderer.Times.Project += t1.Sub(t0)
			renderer.Times.Sort += t2.Sub(t1)
			renderer.Times.Rasterize += time.Since(t2)
			renderer.Times.Frames++
		} else {
			if err := renderer.Frame(st, cam, dst); err != nil {
				return err
			}
		}

		if dumpFrames || (headless && !benchmark) {
			path := fmt.Sprintf("frame_%04d.ppm", frame)
			if err := surface.DumpPPM(dst, path); err != nil {
				slog.Warn("ppm dump failed", "path", path, "error", err)
			}
		}

		frame++

		if frame%interval == 0 {
			logStats(&renderer.Times)
			renderer.Times = splat.StageTimes{}
		}

		if maxFrames > 0 && frame >= maxFrames {
			break
		}
	}

	elapsed := time.Since(start)
	slog.Info("done", "frames", frame, "elapsed", elapsed)
	if benchmark {
		fmt.Printf("%d frames in %.2fs (%.1f fps, %d splats, %s regime)\n",
			frame, elapsed.Seconds(),
			float64(frame)/elapsed.Seconds(), st.Len(), renderer.Regime())
	}

	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return fmt.Errorf("failed to create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
		slog.Info("memory profile written", "output", memProfile)
	}

	return nil
}

func logStats(t *splat.StageTimes) {
	if t.Frames == 0 {
		return
	}
	n := float64(t.Frames)
	ms := func(d time.Duration) float64 { return d.Seconds() * 1000 / n }
	total := t.Project + t.Sort + t.Rasterize
	slog.Info("frame stats",
		"frames", t.Frames,
		"proj_ms", fmt.Sprintf("%.1f", ms(t.Project)),
		"sort_ms", fmt.Sprintf("%.1f", ms(t.Sort)),
		"rast_ms", fmt.Sprintf("%.1f", ms(t.Rasterize)),
		"total_ms", fmt.Sprintf("%.1f", ms(total)),
		"fps", fmt.Sprintf("%.1f", n/total.Seconds()),
	)
}
