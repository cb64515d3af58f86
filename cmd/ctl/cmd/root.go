package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/skyview.go/pkg/logging"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logFile io.Closer
	cmd := &cobra.Command{
		Use:   "skyviewctl",
		Short: "a CLI to normalize and render astronomical images",
		Long:  "Loads an image as tiles, normalizes it with histogram levels, a stretch and a color map, and renders viewports of it.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logPath, _ := cmd.Flags().GetString("log-file")
			logJSON, _ := cmd.Flags().GetBool("log-json")

			var w io.Writer = os.Stderr
			if logPath != "" {
				f := logging.RotatingFile(logPath)
				logFile = f
				w = f
			}
			if strings.EqualFold(logLevel, "off") {
				slog.SetDefault(logging.Nop())
				return
			}

			// Parse log level
			var level slog.Level
			err := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if err != nil {
				level = slog.LevelInfo
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))
			if err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", err)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewLevelsCmd(ctx),
		NewRenderCmd(ctx),
		NewColorMapsCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR, OFF)")
	pf.String("log-file", "", "write logs to a rotating file instead of stderr")
	pf.Bool("log-json", false, "emit JSON log records")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Fprintln(cmd.OutOrStdout(), strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}

// NewColorMapsCmd lists the built-in color maps.
func NewColorMapsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colormaps",
		Short: "list color maps and percentile presets",
		Long:  "list color maps and percentile presets",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			maps := colorMaps()
			fmt.Fprintln(out, "=== Color Maps ===")
			for _, name := range maps.Names() {
				cm, _ := maps.Get(name)
				fmt.Fprintf(out, "%-10s %s\n", cm.Name, cm.DisplayName)
			}
			fmt.Fprintln(out, "\n=== Presets ===")
			for _, p := range presets() {
				fmt.Fprintf(out, "%-10s %6.2f%% - %6.2f%%  %s\n", p.Name, p.Background, p.Peak, p.Description)
			}
		},
	}
	return cmd
}
