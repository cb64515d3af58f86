package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpfielding/skyview.go/pkg/hist"
	"github.com/jpfielding/skyview.go/pkg/normalize"
	"github.com/jpfielding/skyview.go/pkg/raster"
	"github.com/jpfielding/skyview.go/pkg/tile"
	"github.com/jpfielding/skyview.go/pkg/util"
)

func colorMaps() *normalize.ColorMaps { return normalize.DefaultColorMaps() }

func presets() []normalize.Preset { return normalize.Presets }

// loaded is one decoded image split into tiles, with its histogram.
type loaded struct {
	ID     string
	Format string
	Image  *tile.Image[float32]
	Hist   *hist.Histogram
}

func addImageFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "image file (TIFF, PNG or JPEG)")
	pf.Int("tile-size", 512, "tile width and height in pixels")
	pf.Int("workers", 0, "parallel tile workers (0 = GOMAXPROCS)")
	pf.Int("bins", 1024, "histogram bins")
}

func addNormalizerFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("normalizer", "", "JSON normalizer config; flags below override it")
	pf.String("preset", "", "percentile preset (default|faint|full|bright)")
	pf.Float64("background", 10, "background percentile")
	pf.Float64("peak", 99, "peak percentile")
	pf.String("colormap", "gray", "color map name")
	pf.String("stretch", "linear", "stretch (linear|log|sqrt|asinh)")
	pf.Bool("inverted", false, "swap background and peak")
}

func imagePath(cmd *cobra.Command, args []string) (string, error) {
	filePath, _ := cmd.Flags().GetString("file")
	if filePath == "" && len(args) > 0 {
		filePath = args[0]
	}
	if filePath == "" {
		return "", fmt.Errorf("file path is required. Use --file flag or provide as argument")
	}
	return filePath, nil
}

// loadImage decodes path, tiles it and loads every tile from the decoded raster.
func loadImage(ctx context.Context, cmd *cobra.Command, path string) (*loaded, error) {
	tileSize, _ := cmd.Flags().GetInt("tile-size")
	workers, _ := cmd.Flags().GetInt("workers")
	bins, _ := cmd.Flags().GetInt("bins")

	start := time.Now()
	r, format, err := raster.ReadFile(path)
	if err != nil {
		return nil, err
	}
	id := util.NewID()
	img, err := tile.NewImage[float32](id, r.Grid(tileSize, tileSize))
	if err != nil {
		return nil, err
	}
	if err := img.Load(ctx, r, workers); err != nil {
		return nil, fmt.Errorf("load tiles: %w", err)
	}
	h, err := hist.Build(r.Samples, bins)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	slog.DebugContext(ctx, "image loaded",
		"file", path, "id", id, "format", format,
		"width", r.Width, "height", r.Height, "tiles", img.Len(),
		"elapsed", time.Since(start))
	return &loaded{ID: id, Format: format, Image: img, Hist: h}, nil
}

// normalizerConfig reads --normalizer and applies any explicitly set flags on top.
func normalizerConfig(cmd *cobra.Command) (normalize.Config, error) {
	cfg := normalize.DefaultConfig()
	flags := cmd.Flags()
	if path, _ := flags.GetString("normalizer"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open normalizer: %w", err)
		}
		defer f.Close()
		if cfg, err = normalize.ReadConfig(f); err != nil {
			return cfg, err
		}
	}
	if name, _ := flags.GetString("preset"); name != "" {
		var err error
		if cfg, err = cfg.WithPreset(name); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("background") {
		cfg.BackgroundPercentile, _ = flags.GetFloat64("background")
	}
	if flags.Changed("peak") {
		cfg.PeakPercentile, _ = flags.GetFloat64("peak")
	}
	if flags.Changed("colormap") {
		cfg.ColorMapName, _ = flags.GetString("colormap")
	}
	if flags.Changed("stretch") {
		cfg.StretchMode, _ = flags.GetString("stretch")
	}
	if flags.Changed("inverted") {
		cfg.Inverted, _ = flags.GetBool("inverted")
	}
	return cfg, nil
}

// newLayer resolves the normalizer flags and binds them to l.
func newLayer(cmd *cobra.Command, l *loaded) (*normalize.Layer[float32], error) {
	cfg, err := normalizerConfig(cmd)
	if err != nil {
		return nil, err
	}
	n, err := cfg.Resolve(colorMaps())
	if err != nil {
		return nil, err
	}
	return normalize.NewLayer(l.Image, l.Hist, n)
}
