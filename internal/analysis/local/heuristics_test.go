package local_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/analysis/local"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// patch paints a saturated red rectangle over a gray frame.
func patch(w, h int, r image.Rectangle) *image.RGBA {
	img := solid(w, h, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 20, B: 20, A: 255})
		}
	}
	return img
}

func stripes(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.RGBA{A: 255}
			if x%2 == 1 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDetectBlood(t *testing.T) {
	tests := []struct {
		name    string
		img     *image.RGBA
		present bool
	}{
		{"saturated red", solid(100, 100, color.RGBA{R: 200, G: 20, B: 20, A: 255}), true},
		{"dark red without clusters", solid(100, 100, color.RGBA{R: 140, G: 30, B: 30, A: 255}), false},
		{"small red patch", patch(320, 240, image.Rect(100, 100, 111, 111)), false},
		{"large red patch", patch(320, 240, image.Rect(100, 60, 200, 160)), true},
		{"tiny red frame", solid(10, 10, color.RGBA{R: 140, G: 30, B: 30, A: 255}), true},
		{"neutral gray", solid(100, 100, color.RGBA{R: 128, G: 128, B: 128, A: 255}), false},
		{"sky blue", solid(100, 100, color.RGBA{R: 80, G: 160, B: 230, A: 255}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := local.DetectBlood(tt.img)
			if res.Present != tt.present {
				t.Errorf("present = %v, want %v (%+v)", res.Present, tt.present, res)
			}
			if res.Confidence < 0 || res.Confidence > 100 {
				t.Errorf("confidence %d out of range", res.Confidence)
			}
		})
	}
}

func TestDetectBloodClusters(t *testing.T) {
	res := local.DetectBlood(solid(100, 100, color.RGBA{R: 200, G: 20, B: 20, A: 255}))
	if res.Clusters != 25 {
		t.Errorf("clusters = %d, want 25", res.Clusters)
	}
	if res.Percent != 0.25 {
		t.Errorf("percent = %v, want 0.25", res.Percent)
	}
	if res.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", res.Confidence)
	}
}

func TestScoreComposition(t *testing.T) {
	tests := []struct {
		name    string
		img     *image.RGBA
		score   int
		flagged bool
	}{
		{"black frame", solid(40, 40, color.RGBA{A: 255}), 30, false},
		{"bright frame", solid(40, 40, color.RGBA{R: 220, G: 220, B: 220, A: 255}), 0, false},
		{"dark high contrast", stripes(40, 40), 70, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := local.ScoreComposition(tt.img)
			if res.Score != tt.score {
				t.Errorf("score = %d, want %d", res.Score, tt.score)
			}
			if res.Flagged() != tt.flagged {
				t.Errorf("flagged = %v, want %v", res.Flagged(), tt.flagged)
			}
		})
	}
}

func TestHeuristicEvidence(t *testing.T) {
	if e := local.HeuristicComposition(stripes(40, 40), 4); e == nil {
		t.Fatal("expected composition evidence")
	} else if e.Type != analysis.TypeViolenceComposition || e.Severity != analysis.SeverityMedium || e.Frame != 4 {
		t.Errorf("unexpected evidence %+v", e)
	}

	if e := local.HeuristicBlood(solid(60, 60, color.RGBA{R: 200, G: 20, B: 20, A: 255}), 2); e == nil {
		t.Fatal("expected blood evidence")
	} else if e.Type != analysis.TypeBloodDetected || e.Category != analysis.CategoryViolence || e.Severity != analysis.SeverityHigh {
		t.Errorf("unexpected evidence %+v", e)
	}

	if e := local.HeuristicBlood(solid(60, 60, color.RGBA{R: 10, G: 10, B: 10, A: 255}), 0); e != nil {
		t.Errorf("expected no blood evidence, got %+v", e)
	}
}
