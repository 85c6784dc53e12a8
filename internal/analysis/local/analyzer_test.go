package local_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/analysis/local"
	"github.com/JaimeStill/warden/internal/frames"
)

type fakeSampler struct {
	t      *testing.T
	images []*image.RGBA
	err    error
	dir    string
}

func (f *fakeSampler) Extract(ctx context.Context, src string, rateHz float64) (*frames.Set, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.dir = filepath.Join(f.t.TempDir(), "frames")
	if err := os.Mkdir(f.dir, 0o755); err != nil {
		return nil, err
	}

	for i, img := range f.images {
		file, err := os.Create(filepath.Join(f.dir, fmt.Sprintf("frame_%04d.png", i+1)))
		if err != nil {
			return nil, err
		}
		if err := png.Encode(file, img); err != nil {
			file.Close()
			return nil, err
		}
		file.Close()
	}

	return frames.Open(f.dir)
}

type fakeDetector struct {
	objects []local.Detection
	scenes  []local.Detection
	err     error
	calls   atomic.Int32
}

func (f *fakeDetector) DetectObjects(ctx context.Context, still *local.Still) ([]local.Detection, error) {
	f.calls.Add(1)
	return f.objects, f.err
}

func (f *fakeDetector) ClassifyScene(ctx context.Context, still *local.Still) ([]local.Detection, error) {
	return f.scenes, f.err
}

// patchDetector reports a pistol only on frames with a dark pixel at spot.
type patchDetector struct {
	spot  image.Point
	calls atomic.Int32
}

func (f *patchDetector) DetectObjects(ctx context.Context, still *local.Still) ([]local.Detection, error) {
	f.calls.Add(1)
	if r, _, _, _ := still.Image.At(f.spot.X, f.spot.Y).RGBA(); r>>8 < 40 {
		return []local.Detection{{Label: "pistol", Score: 0.9}}, nil
	}
	return nil, nil
}

func (f *patchDetector) ClassifyScene(ctx context.Context, still *local.Still) ([]local.Detection, error) {
	return nil, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gray() *image.RGBA {
	return solid(64, 64, color.RGBA{R: 128, G: 128, B: 128, A: 255})
}

func TestAnalyzeSafeVideo(t *testing.T) {
	sampler := &fakeSampler{t: t, images: []*image.RGBA{gray(), gray(), gray()}}
	det := &fakeDetector{objects: []local.Detection{{Label: "chair", Score: 0.9}}}
	a := local.New(sampler, det, det, discard())

	var percents []int
	a2, err := a.Analyze(context.Background(), "video.mp4", func(p analysis.Progress) {
		percents = append(percents, p.Percent)
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if a2.Verdict != analysis.VerdictSafe || a2.Confidence != 95 {
		t.Errorf("assessment = %s/%d, want safe/95", a2.Verdict, a2.Confidence)
	}
	if a2.Details.Method() != "local_multi_strategy" {
		t.Errorf("method = %q", a2.Details.Method())
	}

	want := []int{33, 67, 100}
	if fmt.Sprint(percents) != fmt.Sprint(want) {
		t.Errorf("progress = %v, want %v", percents, want)
	}

	if _, err := os.Stat(sampler.dir); !os.IsNotExist(err) {
		t.Errorf("frame directory not removed: %v", err)
	}
}

func TestAnalyzeFlagsWeapon(t *testing.T) {
	sampler := &fakeSampler{t: t, images: []*image.RGBA{gray(), gray()}}
	det := &fakeDetector{
		objects: []local.Detection{{Label: "pistol", Score: 0.85}},
		scenes:  []local.Detection{{Label: "battlefield", Score: 0.9}},
	}
	a := local.New(sampler, det, det, discard())

	var last analysis.Progress
	res, err := a.Analyze(context.Background(), "video.mp4", func(p analysis.Progress) { last = p })
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if res.Verdict != analysis.VerdictFlagged {
		t.Fatalf("verdict = %s, want flagged", res.Verdict)
	}
	if res.Details["severity"] != analysis.SeverityCritical {
		t.Errorf("severity = %v, want critical", res.Details["severity"])
	}
	if len(res.Labels) != 1 || res.Labels[0] != "WEAPONS_FIREARMS" {
		t.Errorf("labels = %v, want [WEAPONS_FIREARMS]", res.Labels)
	}
	if len(last.Labels) != 2 || last.Labels[1] != "CONTEXT_MILITARY" {
		t.Errorf("progress labels = %v, want firearms and military", last.Labels)
	}
}

func TestAnalyzeDedup(t *testing.T) {
	tests := []struct {
		name  string
		opts  []local.Option
		calls int32
	}{
		{"default off", nil, 4},
		{"enabled", []local.Option{local.WithDedup(true)}, 1},
		{"disabled", []local.Option{local.WithDedup(false)}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := &fakeSampler{t: t, images: []*image.RGBA{gray(), gray(), gray(), gray()}}
			det := &fakeDetector{}
			a := local.New(sampler, det, det, discard(), tt.opts...)

			if _, err := a.Analyze(context.Background(), "video.mp4", nil); err != nil {
				t.Fatalf("analyze failed: %v", err)
			}
			if got := det.calls.Load(); got != tt.calls {
				t.Errorf("object detector calls = %d, want %d", got, tt.calls)
			}
		})
	}
}

func TestAnalyzeSmallChangeReachesDetectors(t *testing.T) {
	still := solid(320, 240, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	patched := solid(320, 240, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	for y := 110; y < 125; y++ {
		for x := 150; x < 175; x++ {
			patched.SetRGBA(x, y, color.RGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}

	tests := []struct {
		name   string
		images []*image.RGBA
	}{
		{"weapon in second frame", []*image.RGBA{still, patched}},
		{"weapon in first frame", []*image.RGBA{patched, still}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := &fakeSampler{t: t, images: tt.images}
			det := &patchDetector{spot: image.Pt(160, 115)}
			a := local.New(sampler, det, det, discard())

			res, err := a.Analyze(context.Background(), "video.mp4", nil)
			if err != nil {
				t.Fatalf("analyze failed: %v", err)
			}
			if got := det.calls.Load(); got != 2 {
				t.Errorf("object detector calls = %d, want 2", got)
			}
			if res.Verdict != analysis.VerdictFlagged {
				t.Fatalf("verdict = %s, want flagged", res.Verdict)
			}
			if res.Details["severity"] != analysis.SeverityCritical {
				t.Errorf("severity = %v, want critical", res.Details["severity"])
			}
			if len(res.Labels) != 1 || res.Labels[0] != "WEAPONS_FIREARMS" {
				t.Errorf("labels = %v, want [WEAPONS_FIREARMS]", res.Labels)
			}
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		sampler *fakeSampler
		det     *fakeDetector
		target  error
	}{
		{"no frames", &fakeSampler{t: t}, &fakeDetector{}, local.ErrNoFrames},
		{"extraction fails", &fakeSampler{t: t, err: errors.New("ffmpeg exited 1")}, &fakeDetector{}, analysis.ErrLocalAnalysis},
		{
			"detectors fail everywhere",
			&fakeSampler{t: t, images: []*image.RGBA{gray(), gray()}},
			&fakeDetector{err: errors.New("model offline")},
			local.ErrDetectors,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := local.New(tt.sampler, tt.det, tt.det, discard())

			_, err := a.Analyze(context.Background(), "video.mp4", nil)
			if !errors.Is(err, tt.target) {
				t.Fatalf("error = %v, want %v", err, tt.target)
			}
			if !errors.Is(err, analysis.ErrLocalAnalysis) {
				t.Errorf("error %v is not a local analysis error", err)
			}
		})
	}
}
