// Package ffmpeg wraps the ffmpeg and ffprobe command-line tools for probing,
// frame sampling, and thumbnail capture.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FramePattern is the output filename pattern used by ExtractFrames.
const FramePattern = "frame_%04d.png"

// Config names the ffmpeg and ffprobe binaries.
type Config struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Tool runs ffmpeg commands through a Runner.
type Tool struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
}

// Option configures a Tool.
type Option func(*Tool)

// WithRunner replaces the os/exec runner, primarily for tests.
func WithRunner(r Runner) Option {
	return func(t *Tool) {
		t.runner = r
	}
}

// New creates a Tool. Empty binary paths resolve through PATH.
func New(cfg Config, opts ...Option) *Tool {
	t := &Tool{
		ffmpeg:  cfg.FFmpegPath,
		ffprobe: cfg.FFprobePath,
		runner:  execRunner{},
	}
	if t.ffmpeg == "" {
		t.ffmpeg = "ffmpeg"
	}
	if t.ffprobe == "" {
		t.ffprobe = "ffprobe"
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Version returns the first line of `ffmpeg -version`.
func (t *Tool) Version(ctx context.Context) (string, error) {
	res, err := t.runner.Run(ctx, nil, t.ffmpeg, "-hide_banner", "-version")
	if err != nil {
		return "", &Error{Stage: "version", ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return strings.TrimSpace(strings.SplitN(res.Stdout, "\n", 2)[0]), nil
}

// Duration reports the container duration of src.
func (t *Tool) Duration(ctx context.Context, src string) (time.Duration, error) {
	res, err := t.runner.Run(ctx, nil, t.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	)
	if err != nil {
		return 0, &Error{Stage: "duration", ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoDuration, strings.TrimSpace(res.Stdout))
	}

	return time.Duration(secs * float64(time.Second)), nil
}

// Probe decodes src to a null muxer, reporting the fraction of the stream
// processed in [0,1]. A source ffmpeg cannot fully decode fails the probe.
// When the container reports no duration the decode still runs and only the
// final 1 is reported.
func (t *Tool) Probe(ctx context.Context, src string, onProgress func(float64)) error {
	total, err := t.Duration(ctx, src)
	if err != nil && !errors.Is(err, ErrNoDuration) {
		return err
	}

	w := newProgressWriter(total, onProgress)
	res, err := t.runner.Run(ctx, w, t.ffmpeg,
		"-hide_banner", "-nostats",
		"-v", "error",
		"-i", src,
		"-progress", "pipe:1",
		"-f", "null", "-",
	)
	if err != nil {
		return &Error{Stage: "probe", ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}

	w.finish()
	return nil
}

// ExtractFrames writes PNG frames sampled at rateHz into dir.
func (t *Tool) ExtractFrames(ctx context.Context, src, dir string, rateHz float64) error {
	res, err := t.runner.Run(ctx, nil, t.ffmpeg,
		"-hide_banner",
		"-v", "error",
		"-i", src,
		"-vf", "fps="+strconv.FormatFloat(rateHz, 'f', -1, 64),
		"-q:v", "2",
		filepath.Join(dir, FramePattern),
	)
	if err != nil {
		return &Error{Stage: "frames", ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return nil
}

// Thumbnail captures one JPEG frame at offset, scaled to width x height.
func (t *Tool) Thumbnail(ctx context.Context, src, dst string, offset time.Duration, width, height int) error {
	res, err := t.runner.Run(ctx, nil, t.ffmpeg,
		"-hide_banner",
		"-v", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", src,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-y", dst,
	)
	if err != nil {
		return &Error{Stage: "thumbnail", ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return nil
}
