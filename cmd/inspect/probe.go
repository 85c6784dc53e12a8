package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/warden/internal/moderation"
	"github.com/JaimeStill/warden/pkg/ffmpeg"
	"github.com/JaimeStill/warden/pkg/formatting"
)

func newProbeCmd() *cobra.Command {
	var maxSize string

	cmd := &cobra.Command{
		Use:   "probe <video>",
		Short: "Run intake validation and a full decode probe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := formatting.ParseBytes(maxSize)
			if err != nil {
				return err
			}
			if err := moderation.ValidateSource(args[0], limit); err != nil {
				return err
			}

			cfg, err := loadAnalysis()
			if err != nil {
				return err
			}
			tool := ffmpeg.New(cfg.FFmpeg)

			d, err := tool.Duration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			colorInfo.Printf("duration %s\n", d)

			err = tool.Probe(cmd.Context(), args[0], func(f float64) {
				fmt.Printf("\rdecoded %3.0f%%", f*100)
			})
			fmt.Println()
			if err != nil {
				return err
			}

			colorPass.Println("decodable")
			return nil
		},
	}

	cmd.Flags().StringVar(&maxSize, "max-size", "2GB", "intake size limit")

	return cmd
}
