package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/analysis/cloud"
	"github.com/JaimeStill/warden/internal/analysis/local"
	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/frames"
	"github.com/JaimeStill/warden/pkg/ffmpeg"
)

type analyzeOptions struct {
	backend string
	rate    float64
	dedup   bool
	asJSON  bool
	verbose bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Produce a risk assessment for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.backend, "backend", "b", string(analysis.BackendLocal), "analyzer backend: local or cloud")
	f.Float64Var(&opts.rate, "rate", 0, "frame sampling rate in Hz (default from WARDEN_ANALYSIS_SAMPLE_RATE)")
	f.BoolVar(&opts.dedup, "dedup", false, "reuse detections across near-duplicate frames")
	f.BoolVar(&opts.asJSON, "json", false, "print the assessment as JSON")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log analyzer internals")

	return cmd
}

func runAnalyze(cmd *cobra.Command, src string, opts analyzeOptions) error {
	cfg, err := loadAnalysis()
	if err != nil {
		return err
	}
	if opts.rate > 0 {
		cfg.SampleRate = opts.rate
	}
	if opts.dedup {
		cfg.Dedup = true
	}

	logger := newLogger(opts.verbose)

	analyzer, err := buildAnalyzer(cmd, cfg, opts.backend, logger)
	if err != nil {
		return err
	}
	if c, ok := analyzer.(io.Closer); ok {
		defer c.Close()
	}

	colorInfo.Fprintf(os.Stderr, "analyzing %s with %s\n", src, analyzer.Name())

	assessment, err := analyzer.Analyze(cmd.Context(), src, func(p analysis.Progress) {
		fmt.Fprintf(os.Stderr, "\r%3d%%  %s", p.Percent, strings.Join(p.Labels, ", "))
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	}

	printAssessment(assessment)
	return nil
}

func buildAnalyzer(cmd *cobra.Command, cfg *config.AnalysisConfig, backend string, logger *slog.Logger) (analysis.Analyzer, error) {
	switch analysis.Backend(backend) {
	case analysis.BackendLocal:
		agent, err := loadAgent()
		if err != nil {
			return nil, err
		}
		tool := ffmpeg.New(cfg.FFmpeg)
		vision := local.NewVisionDetector(agent)
		if err := vision.Validate(); err != nil {
			return nil, fmt.Errorf("vision detector: %w", err)
		}
		return local.New(
			frames.NewSampler(tool, cfg.FrameDir), vision, vision, logger,
			local.WithRate(cfg.SampleRate),
			local.WithDedup(cfg.Dedup),
		), nil
	case analysis.BackendCloud:
		if !cfg.Cloud.Enabled {
			return nil, fmt.Errorf("cloud analysis disabled: set WARDEN_CLOUD_ENABLED and WARDEN_CLOUD_BUCKET")
		}
		return cloud.New(cmd.Context(), &cfg.Cloud, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func printAssessment(a *analysis.Assessment) {
	if a.Verdict == analysis.VerdictFlagged {
		colorFail.Printf("FLAGGED")
	} else {
		colorPass.Printf("SAFE")
	}
	fmt.Printf("  confidence %d%%  method %s\n", a.Confidence, a.Details.Method())

	for _, label := range a.Labels {
		colorLabel.Printf("  - %s\n", label)
	}
}

func loadAnalysis() (*config.AnalysisConfig, error) {
	var cfg config.AnalysisConfig
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	return &cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
