// Package local implements the on-host moderation analyzer. Every sampled
// frame runs through four independent strategies (object detection, scene
// classification, a color heuristic, and a composition heuristic) whose
// evidence is fused into one risk assessment.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/frames"
	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// ErrNoFrames indicates the sampler produced no frames for the source.
var ErrNoFrames = errors.New("no frames extracted")

// ErrDetectors indicates every model-backed detection failed on every frame.
var ErrDetectors = errors.New("detectors failed on every frame")

// Sampler produces the frame set for one analysis run.
type Sampler interface {
	Extract(ctx context.Context, src string, rateHz float64) (*frames.Set, error)
}

// VersionChecker verifies the frame extraction tool is installed.
type VersionChecker interface {
	Version(ctx context.Context) (string, error)
}

// Analyzer is the local multi-strategy analyzer.
type Analyzer struct {
	sampler Sampler
	objects ObjectDetector
	scenes  SceneClassifier
	tool    VersionChecker
	rate    float64
	dedup   bool
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRate sets the frame sampling rate in Hz.
func WithRate(hz float64) Option {
	return func(a *Analyzer) {
		if hz > 0 {
			a.rate = hz
		}
	}
}

// WithToolCheck verifies tool at startup.
func WithToolCheck(tool VersionChecker) Option {
	return func(a *Analyzer) { a.tool = tool }
}

// WithDedup toggles reuse of model detections across near-identical
// consecutive frames. Off by default, so every frame reaches the detectors.
func WithDedup(enabled bool) Option {
	return func(a *Analyzer) { a.dedup = enabled }
}

// New creates the local analyzer.
func New(sampler Sampler, objects ObjectDetector, scenes SceneClassifier, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		sampler: sampler,
		objects: objects,
		scenes:  scenes,
		rate:    frames.DefaultRate,
		logger:  logger.With("system", "local-analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Name() string {
	return Method
}

// Start validates the detector backends and registers a startup check of
// the extraction tool.
func (a *Analyzer) Start(lc *lifecycle.Coordinator) error {
	for _, d := range []any{a.objects, a.scenes} {
		if v, ok := d.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("validate detector: %w", err)
			}
		}
	}

	if a.tool != nil {
		lc.OnStartup("ffmpeg", func(ctx context.Context) error {
			version, err := a.tool.Version(ctx)
			if err != nil {
				a.logger.Error("ffmpeg unavailable", "error", err)
				return err
			}
			a.logger.Info("ffmpeg detected", "version", version)
			return nil
		})
	}

	return nil
}

// Analyze samples sourcePath and fuses the evidence of every frame.
// Progress reports the share of frames analyzed with the labels seen so far.
func (a *Analyzer) Analyze(ctx context.Context, sourcePath string, progress analysis.ProgressFunc) (*analysis.Assessment, error) {
	set, err := a.sampler.Extract(ctx, sourcePath, a.rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", analysis.ErrLocalAnalysis, err)
	}
	defer func() {
		if err := set.Cleanup(); err != nil {
			a.logger.Warn("frame cleanup failed", "dir", set.Dir, "error", err)
		}
	}()

	total := set.Len()
	if total == 0 {
		return nil, fmt.Errorf("%w: %w", analysis.ErrLocalAnalysis, ErrNoFrames)
	}

	a.logger.InfoContext(ctx, "analyzing frames", "source", sourcePath, "frames", total)

	var (
		results  = make([]FrameResult, 0, total)
		seen     analysis.LabelSet
		cache    = newDetectionCache(a.dedup)
		degraded int
	)

	for i, f := range set.Frames {
		still, err := loadStill(f)
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", analysis.ErrLocalAnalysis, f.Index, err)
		}

		evidence, failed, err := a.analyzeFrame(ctx, still, cache)
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", analysis.ErrLocalAnalysis, f.Index, err)
		}
		if failed {
			degraded++
		}

		fr := ScoreFrame(f.Index, evidence)
		results = append(results, fr)

		for _, e := range fr.Evidence {
			seen.Add(e.Type)
		}

		a.logger.DebugContext(ctx, "frame analyzed", "frame", f.Index+1, "of", total, "risk", fr.Risk)

		if progress != nil {
			progress(analysis.Progress{
				Percent: int(math.Round(float64(i+1) / float64(total) * 100)),
				Labels:  seen.Slice(),
			})
		}
	}

	if degraded == total {
		return nil, fmt.Errorf("%w: %w", analysis.ErrLocalAnalysis, ErrDetectors)
	}

	assessment := Fuse(results)
	a.logger.InfoContext(ctx, "local analysis complete",
		"verdict", assessment.Verdict,
		"confidence", assessment.Confidence,
		"labels", assessment.Labels,
		"degraded_frames", degraded,
	)

	return assessment, nil
}

const (
	slotObjects = iota
	slotScenes
	slotColor
	slotComposition
	slotCount
)

// analyzeFrame runs the four strategies concurrently. A failing detector
// contributes no evidence; failed reports whether both detectors failed.
func (a *Analyzer) analyzeFrame(ctx context.Context, still *Still, cache *detectionCache) (evidence []analysis.Evidence, failed bool, err error) {
	var slots [slotCount][]analysis.Evidence
	var objErr, sceneErr error

	cached, hit := cache.lookup(still.Image)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dets := cached.objects
		if !hit {
			dets, objErr = a.objects.DetectObjects(gctx, still)
		}
		if objErr != nil {
			a.logger.WarnContext(gctx, "object detection failed", "frame", still.Index, "error", objErr)
			return nil
		}
		cached.objects = dets
		slots[slotObjects] = ObjectEvidence(dets, still.Index)
		return nil
	})

	g.Go(func() error {
		dets := cached.scenes
		if !hit {
			dets, sceneErr = a.scenes.ClassifyScene(gctx, still)
		}
		if sceneErr != nil {
			a.logger.WarnContext(gctx, "scene classification failed", "frame", still.Index, "error", sceneErr)
			return nil
		}
		cached.scenes = dets
		slots[slotScenes] = SceneEvidence(dets, still.Index)
		return nil
	})

	g.Go(func() error {
		if blood := HeuristicBlood(still.Image, still.Index); blood != nil {
			slots[slotColor] = []analysis.Evidence{*blood}
		}
		return nil
	})

	g.Go(func() error {
		if comp := HeuristicComposition(still.Image, still.Index); comp != nil {
			slots[slotComposition] = []analysis.Evidence{*comp}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	failed = objErr != nil && sceneErr != nil
	if objErr == nil && sceneErr == nil {
		cache.store(cached)
	}

	for _, s := range slots {
		evidence = append(evidence, s...)
	}
	return evidence, failed, nil
}

func loadStill(f frames.Frame) (*Still, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	return &Still{Index: f.Index, PNG: data, Image: toRGBA(src)}, nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
