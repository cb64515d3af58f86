package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/skyview.go/pkg/geom"
	"github.com/jpfielding/skyview.go/pkg/render"
	"github.com/jpfielding/skyview.go/pkg/viewer"
)

// NewRenderCmd creates the render cobra command
func NewRenderCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Normalize an image and render a viewport to PNG",
		Long:  "Loads an image as tiles, normalizes every tile, applies the requested viewport operations and writes the visible viewport as a PNG.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, err := imagePath(cmd, args)
			if err != nil {
				return err
			}
			return runRender(ctx, cmd, filePath)
		},
	}
	addImageFlags(cmd)
	addNormalizerFlags(cmd)
	pf := cmd.PersistentFlags()
	pf.StringP("out", "o", "out.png", "output PNG path")
	pf.Int("width", 0, "viewport width (0 = image width)")
	pf.Int("height", 0, "viewport height (0 = image height)")
	pf.String("viewport-transform", "", "JSON transform {a,b,c,d,tx,ty} to start the viewport from")
	pf.Bool("flip", false, "mirror the image horizontally")
	pf.Float64("rotate", 0, "rotate about the viewport center by degrees")
	pf.Float64("zoom", 0, "zoom to this scale about the viewport center (0 = skip)")
	pf.Float64("dx", 0, "pan horizontally by viewport pixels")
	pf.Float64("dy", 0, "pan vertically by viewport pixels")
	pf.String("center", "", "center the image region x,y,w,h in the viewport")
	pf.String("quality", "bilinear", "resampling (nearest|bilinear|catmullrom)")
	pf.Bool("print-transform", false, "print the final transforms as JSON")
	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, filePath string) error {
	flags := cmd.Flags()
	outPath, _ := flags.GetString("out")
	workers, _ := flags.GetInt("workers")
	qualityName, _ := flags.GetString("quality")
	quality, err := render.ParseQuality(qualityName)
	if err != nil {
		return err
	}

	l, err := loadImage(ctx, cmd, filePath)
	if err != nil {
		return err
	}
	layer, err := newLayer(cmd, l)
	if err != nil {
		return err
	}
	n, err := layer.NormalizeAll(ctx, workers)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	slog.DebugContext(ctx, "tiles normalized", "id", l.ID, "count", n, "normalizer", layer.Normalizer().Fingerprint())

	engine := viewer.NewEngine(viewer.DefaultHistoryDepth)
	w, h := float64(l.Image.Grid.Width), float64(l.Image.Grid.Height)
	engine.Init(l.ID, w, h)
	if err := applyViewOps(ctx, cmd, engine, l.ID, geom.Size{Width: w, Height: h}); err != nil {
		return err
	}
	state, _ := engine.State(l.ID)

	out, err := render.Viewport(render.Mosaic(layer), state, quality, color.Black)
	if err != nil {
		return err
	}
	if err := writePNG(outPath, out); err != nil {
		return err
	}

	region, _ := engine.ViewportRegion(l.ID)
	slog.InfoContext(ctx, "rendered",
		"out", outPath, "scale", state.Scale(),
		"region", fmt.Sprintf("%.1f,%.1f %.1fx%.1f", region.X, region.Y, region.Width, region.Height))

	if printT, _ := flags.GetBool("print-transform"); printT {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(transformReport(l.ID, state, region))
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// applyViewOps runs the requested engine operations in a fixed order:
// size, base transform, flip, rotate, zoom, pan, center.
func applyViewOps(ctx context.Context, cmd *cobra.Command, e *viewer.Engine, id string, imageSize geom.Size) error {
	flags := cmd.Flags()
	vw, _ := flags.GetInt("width")
	vh, _ := flags.GetInt("height")
	size := imageSize
	if vw > 0 {
		size.Width = float64(vw)
	}
	if vh > 0 {
		size.Height = float64(vh)
	}
	e.UpdateViewportSize(id, size)

	if path, _ := flags.GetString("viewport-transform"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read viewport transform: %w", err)
		}
		var t geom.Transform
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("decode viewport transform: %w", err)
		}
		m := geom.TransformToMatrix(t)
		if !m.IsInvertible() {
			return fmt.Errorf("viewport transform is singular")
		}
		e.SetViewportTransform(id, m)
	}

	check := func(op string, ok bool) {
		if !ok {
			slog.WarnContext(ctx, "view operation rejected", "op", op, "id", id)
		}
	}
	if flip, _ := flags.GetBool("flip"); flip {
		check("flip", e.Flip(id))
	}
	if deg, _ := flags.GetFloat64("rotate"); deg != 0 {
		check("rotate", e.RotateBy(id, deg, nil))
	}
	if scale, _ := flags.GetFloat64("zoom"); scale > 0 {
		check("zoom", e.ZoomTo(id, scale, nil))
	}
	dx, _ := flags.GetFloat64("dx")
	dy, _ := flags.GetFloat64("dy")
	if dx != 0 || dy != 0 {
		check("move", e.MoveBy(id, dx, dy))
	}
	if spec, _ := flags.GetString("center"); spec != "" {
		r, err := parseRegion(spec)
		if err != nil {
			return err
		}
		check("center", e.CenterRegionInViewport(id, r, nil))
	}
	return nil
}

func parseRegion(s string) (geom.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Region{}, fmt.Errorf("region %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = f
	}
	return geom.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

type renderReport struct {
	Image    geom.Transform `json:"imageTransform"`
	Viewport geom.Transform `json:"viewportTransform"`
	Composed geom.Transform `json:"imageToViewport"`
	Region   geom.Region    `json:"region"`
	Scale    float64        `json:"scale"`
}

func transformReport(id string, s viewer.State, region geom.Region) renderReport {
	tag := func(m geom.Affine) geom.Transform {
		t := geom.MatrixToTransform(m)
		t.ID = id
		return t
	}
	return renderReport{
		Image:    tag(s.ImageTransform),
		Viewport: tag(s.ViewportTransform),
		Composed: tag(s.ImageToViewport),
		Region:   region,
		Scale:    s.Scale(),
	}
}
