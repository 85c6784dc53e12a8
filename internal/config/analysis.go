package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/warden/internal/analysis/cloud"
	"github.com/JaimeStill/warden/internal/frames"
	"github.com/JaimeStill/warden/internal/quota"
	"github.com/JaimeStill/warden/pkg/ffmpeg"
)

const (
	EnvAnalysisSampleRate    = "WARDEN_ANALYSIS_SAMPLE_RATE"
	EnvAnalysisQuotaCapacity = "WARDEN_ANALYSIS_QUOTA_CAPACITY"
	EnvAnalysisDedup         = "WARDEN_ANALYSIS_DEDUP"
	EnvAnalysisFrameDir      = "WARDEN_ANALYSIS_FRAME_DIR"
	EnvFFmpegPath            = "WARDEN_FFMPEG_PATH"
	EnvFFprobePath           = "WARDEN_FFPROBE_PATH"
)

var cloudEnv = &cloud.Env{
	Enabled:         "WARDEN_CLOUD_ENABLED",
	Project:         "WARDEN_CLOUD_PROJECT",
	Bucket:          "WARDEN_CLOUD_BUCKET",
	CredentialsFile: "WARDEN_CLOUD_CREDENTIALS_FILE",
	StagingPrefix:   "WARDEN_CLOUD_STAGING_PREFIX",
}

// AnalysisConfig holds analyzer and frame sampling settings.
type AnalysisConfig struct {
	// SampleRate is the frame sampling rate in Hz.
	SampleRate    float64       `toml:"sample_rate"`
	QuotaCapacity int           `toml:"quota_capacity"`
	// Dedup reuses detections across near-identical consecutive frames.
	Dedup         bool          `toml:"dedup"`
	FrameDir      string        `toml:"frame_dir"`
	FFmpeg        ffmpeg.Config `toml:"ffmpeg"`
	Cloud         cloud.Config  `toml:"cloud"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Cloud.Finalize(cloudEnv); err != nil {
		return fmt.Errorf("cloud: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.SampleRate != 0 {
		c.SampleRate = overlay.SampleRate
	}
	if overlay.QuotaCapacity != 0 {
		c.QuotaCapacity = overlay.QuotaCapacity
	}
	if overlay.Dedup {
		c.Dedup = true
	}
	if overlay.FrameDir != "" {
		c.FrameDir = overlay.FrameDir
	}
	if overlay.FFmpeg.FFmpegPath != "" {
		c.FFmpeg.FFmpegPath = overlay.FFmpeg.FFmpegPath
	}
	if overlay.FFmpeg.FFprobePath != "" {
		c.FFmpeg.FFprobePath = overlay.FFmpeg.FFprobePath
	}
	c.Cloud.Merge(&overlay.Cloud)
}

func (c *AnalysisConfig) loadDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = frames.DefaultRate
	}
	if c.QuotaCapacity == 0 {
		c.QuotaCapacity = quota.DefaultCapacity
	}
}

func (c *AnalysisConfig) loadEnv() {
	if v := os.Getenv(EnvAnalysisSampleRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleRate = f
		}
	}
	if v := os.Getenv(EnvAnalysisQuotaCapacity); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QuotaCapacity = n
		}
	}
	if v := os.Getenv(EnvAnalysisDedup); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Dedup = b
		}
	}
	if v := os.Getenv(EnvAnalysisFrameDir); v != "" {
		c.FrameDir = v
	}
	if v := os.Getenv(EnvFFmpegPath); v != "" {
		c.FFmpeg.FFmpegPath = v
	}
	if v := os.Getenv(EnvFFprobePath); v != "" {
		c.FFmpeg.FFprobePath = v
	}
}

func (c *AnalysisConfig) validate() error {
	if c.SampleRate <= 0 || c.SampleRate > 30 {
		return fmt.Errorf("sample_rate must be in (0, 30], got %g", c.SampleRate)
	}
	if c.QuotaCapacity < 1 {
		return fmt.Errorf("quota_capacity must be positive, got %d", c.QuotaCapacity)
	}
	return nil
}
