package main

import (
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"github.com/cwbudde/gsplat/internal/splat"
	"github.com/cwbudde/gsplat/internal/surface"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Render into a window",
	Long:  `Runs the orbit-camera render loop and presents it in a window.`,
	RunE:  runView,
}

func init() {
	viewCmd.Flags().IntVar(&splatCount, "count", 10000, "Number of generated test splats")
	viewCmd.Flags().StringVar(&inputPath, "input-path", "", "Load splats from a packed image or .json scene")
	viewCmd.Flags().StringVar(&serialDev, "serial-device", "", "Read splats from a serial device")
	viewCmd.Flags().Int64Var(&seed, "seed", 42, "Animation and test-data seed")
	viewCmd.Flags().StringVar(&regime, "regime", "float", "Rasterizer numeric regime: float, fixed")
	viewCmd.Flags().IntVar(&surfWidth, "width", 640, "Render width")
	viewCmd.Flags().IntVar(&surfHeight, "height", 480, "Render height")

	rootCmd.AddCommand(viewCmd)
}

// viewGame drives one pipeline frame per ebiten tick, rendering into a
// 32bpp memory surface and uploading it to the screen.
type viewGame struct {
	store    *splat.Store
	cam      *splat.Camera
	renderer *splat.Renderer
	surf     *surface.Memory
	rgba     []byte
	frame    int
}

func (g *viewGame) Update() error {
	splat.OrbitCamera(g.cam, g.frame)
	g.frame++
	return g.renderer.Frame(g.store, g.cam, g.surf)
}

func (g *viewGame) Draw(screen *ebiten.Image) {
	// Surface pixels are little-endian XRGB; ebiten wants RGBA bytes.
	pix := g.surf.Pix
	for i := 0; i < len(pix); i += 4 {
		g.rgba[i+0] = pix[i+2]
		g.rgba[i+1] = pix[i+1]
		g.rgba[i+2] = pix[i+0]
		g.rgba[i+3] = 255
	}
	screen.WritePixels(g.rgba)
}

func (g *viewGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.surf.W, g.surf.H
}

func runView(cmd *cobra.Command, args []string) error {
	renderer, err := splat.NewRenderer(regime)
	if err != nil {
		return err
	}

	mem, err := surface.NewMemory(surfWidth, surfHeight, 32)
	if err != nil {
		return err
	}

	st := splat.NewStore(splat.DefaultMaxSplats)
	loadSplats(st)

	g := &viewGame{
		store:    st,
		cam:      splat.NewCamera(60, surfWidth, surfHeight),
		renderer: renderer,
		surf:     mem,
		rgba:     make([]byte, len(mem.Pix)),
	}

	slog.Info("view starting",
		"splats", st.Len(),
		"surface", fmt.Sprintf("%dx%d", surfWidth, surfHeight),
		"regime", renderer.Regime(),
	)

	ebiten.SetWindowSize(surfWidth, surfHeight)
	ebiten.SetWindowTitle("gsplat")
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(g)
}
