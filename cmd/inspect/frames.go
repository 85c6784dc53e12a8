package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/warden/internal/frames"
	"github.com/JaimeStill/warden/pkg/ffmpeg"
)

func newFramesCmd() *cobra.Command {
	var (
		rate float64
		keep bool
	)

	cmd := &cobra.Command{
		Use:   "frames <video>",
		Short: "Sample frames the way the local analyzer does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAnalysis()
			if err != nil {
				return err
			}
			if rate > 0 {
				cfg.SampleRate = rate
			}

			sampler := frames.NewSampler(ffmpeg.New(cfg.FFmpeg), cfg.FrameDir)
			set, err := sampler.Extract(cmd.Context(), args[0], cfg.SampleRate)
			if err != nil {
				return err
			}
			if !keep {
				defer set.Cleanup()
			}

			colorInfo.Printf("%d frames at %g Hz\n", set.Len(), cfg.SampleRate)
			for _, f := range set.Frames {
				fmt.Printf("  %4d  %s\n", f.Index, f.Path)
			}
			if keep {
				fmt.Fprintf(os.Stderr, "frames kept in %s\n", set.Dir)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "sampling rate in Hz")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the frame directory")

	return cmd
}
