package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpfielding/skyview.go/pkg/hist"
)

// NewLevelsCmd creates the levels cobra command
func NewLevelsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Report histogram levels for an image",
		Long:  "Loads an image, builds its histogram and prints the background and peak levels chosen by the normalizer and by every preset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, err := imagePath(cmd, args)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			l, err := loadImage(ctx, cmd, filePath)
			if err != nil {
				return err
			}
			rep, err := buildLevelsReport(cmd, filePath, l)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printLevelsReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	addImageFlags(cmd)
	addNormalizerFlags(cmd)
	cmd.PersistentFlags().Bool("json", false, "print the report as JSON")
	return cmd
}

type presetLevels struct {
	Name        string           `json:"name"`
	Percentiles hist.Percentiles `json:"percentiles"`
	Levels      hist.Levels      `json:"levels"`
}

type levelsReport struct {
	File        string           `json:"file"`
	Format      string           `json:"format"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Tiles       int              `json:"tiles"`
	Min         float64          `json:"min"`
	Max         float64          `json:"max"`
	Bins        int              `json:"bins"`
	Normalizer  string           `json:"normalizer"`
	Percentiles hist.Percentiles `json:"percentiles"`
	Levels      hist.Levels      `json:"levels"`
	Rounded     hist.Levels      `json:"rounded"`
	RoundTrip   hist.Percentiles `json:"roundTrip"`
	Presets     []presetLevels   `json:"presets"`
}

func buildLevelsReport(cmd *cobra.Command, filePath string, l *loaded) (*levelsReport, error) {
	layer, err := newLayer(cmd, l)
	if err != nil {
		return nil, err
	}
	n := layer.Normalizer()
	levels, err := layer.Levels()
	if err != nil {
		return nil, err
	}
	rounded := hist.RoundLevels(levels)
	back, err := l.Hist.CalcPercentiles(rounded)
	if err != nil {
		return nil, err
	}
	rep := &levelsReport{
		File:        filePath,
		Format:      l.Format,
		Width:       l.Image.Grid.Width,
		Height:      l.Image.Grid.Height,
		Tiles:       l.Image.Len(),
		Min:         l.Hist.MinBin,
		Max:         l.Hist.MaxBin,
		Bins:        l.Hist.NumBins(),
		Normalizer:  n.Fingerprint(),
		Percentiles: hist.Percentiles{Background: n.BackgroundPercentile, Peak: n.PeakPercentile},
		Levels:      levels,
		Rounded:     rounded,
		RoundTrip:   back,
	}
	for _, p := range presets() {
		lv, err := l.Hist.CalcLevels(p.Background, p.Peak)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		rep.Presets = append(rep.Presets, presetLevels{
			Name:        p.Name,
			Percentiles: hist.Percentiles{Background: p.Background, Peak: p.Peak},
			Levels:      hist.RoundLevels(lv),
		})
	}
	return rep, nil
}

func printLevelsReport(w io.Writer, r *levelsReport) {
	fmt.Fprintln(w, "=== Image ===")
	fmt.Fprintf(w, "Format: %s\n", r.Format)
	fmt.Fprintf(w, "Size: %dx%d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Tiles: %d\n", r.Tiles)
	fmt.Fprintf(w, "Range: %g - %g (%d bins)\n", r.Min, r.Max, r.Bins)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Normalizer ===")
	fmt.Fprintf(w, "Fingerprint: %s\n", r.Normalizer)
	fmt.Fprintf(w, "Percentiles: %.2f%% - %.2f%%\n", r.Percentiles.Background, r.Percentiles.Peak)
	fmt.Fprintf(w, "Levels: %g - %g\n", r.Levels.Background, r.Levels.Peak)
	fmt.Fprintf(w, "Rounded: %g - %g (%.2f%% - %.2f%%)\n",
		r.Rounded.Background, r.Rounded.Peak, r.RoundTrip.Background, r.RoundTrip.Peak)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Presets ===")
	for _, p := range r.Presets {
		fmt.Fprintf(w, "%-10s %6.2f%% - %6.2f%%  -> %g - %g\n",
			p.Name, p.Percentiles.Background, p.Percentiles.Peak, p.Levels.Background, p.Levels.Peak)
	}
}
