// Command inspect runs the moderation analyzers against a local video
// without the server, database, or storage.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	colorFail  = color.New(color.FgRed, color.Bold)
	colorPass  = color.New(color.FgGreen, color.Bold)
	colorLabel = color.New(color.FgYellow)
	colorInfo  = color.New(color.FgCyan)
)

func main() {
	root := &cobra.Command{
		Use:          "inspect",
		Short:        "Run warden analyzers against local video files",
		SilenceUsage: true,
		Long: `inspect runs the frame sampler and the moderation analyzers directly.

Analyzer settings come from the same WARDEN_* variables the server reads:
WARDEN_ANALYSIS_*, WARDEN_FFMPEG_PATH, WARDEN_CLOUD_* and WARDEN_AGENT_*.`,
	}

	root.AddCommand(newAnalyzeCmd(), newFramesCmd(), newProbeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		colorFail.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
