package local

import (
	"image"
	"math"

	"github.com/JaimeStill/warden/internal/analysis"
)

const (
	bloodGrid         = 20
	bloodRadius       = 20
	bloodRadiusStep   = 5
	bloodNeighborMin  = 3
	bloodPercentFlag  = 0.5
	bloodClustersFlag = 3

	darkBrightness   = 40
	contrastDelta    = 100
	darkPercentFlag  = 40
	contrastPctFlag  = 15
	compositionFlag  = 50
	darkContribution = 30
	contrastContrib  = 40
)

// BloodResult is the outcome of the blood color heuristic.
type BloodResult struct {
	Present    bool
	Percent    float64
	Clusters   int
	Confidence int
}

// DetectBlood samples img on a fixed grid and counts blood-colored samples.
// A sample forms a cluster when enough of its neighborhood is strongly red.
// Percent is relative to every pixel in the frame, so a small red object
// flags only through clusters.
func DetectBlood(img *image.RGBA) BloodResult {
	b := img.Bounds()

	var bloodLike, clusters int
	for y := b.Min.Y; y < b.Max.Y; y += bloodGrid {
		for x := b.Min.X; x < b.Max.X; x += bloodGrid {
			r, g, bl := rgb(img, x, y)
			if !isBloodLike(r, g, bl) {
				continue
			}
			bloodLike++
			if redNeighborhood(img, x, y) {
				clusters++
			}
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return BloodResult{}
	}

	pct := float64(bloodLike) / (float64(total) / 100)
	return BloodResult{
		Present:    pct > bloodPercentFlag || clusters > bloodClustersFlag,
		Percent:    math.Round(pct*100) / 100,
		Clusters:   clusters,
		Confidence: analysis.ClampConfidence(int(math.Round(pct*10 + float64(clusters)*5))),
	}
}

func isBloodLike(r, g, b float64) bool {
	return (r > 100 && r < 180 && g < 60 && b < 60) ||
		(r > 180 && g < 100 && b < 100 && r > g*1.8) ||
		(r > 120 && g > 60 && g < r*0.7 && b < g*0.8)
}

func redNeighborhood(img *image.RGBA, x, y int) bool {
	b := img.Bounds()
	matches := 0
	for dy := -bloodRadius; dy <= bloodRadius; dy += bloodRadiusStep {
		for dx := -bloodRadius; dx <= bloodRadius; dx += bloodRadiusStep {
			p := image.Pt(x+dx, y+dy)
			if !p.In(b) {
				continue
			}
			r, g, _ := rgb(img, p.X, p.Y)
			if r > 150 && r > g*1.5 {
				matches++
			}
		}
	}
	return matches > bloodNeighborMin
}

// CompositionResult is the outcome of the dark/high-contrast composition heuristic.
type CompositionResult struct {
	Score           int
	DarkPercent     float64
	ContrastPercent float64
}

// Flagged reports whether the composition suggests violent content.
func (c CompositionResult) Flagged() bool {
	return c.Score > compositionFlag
}

// ScoreComposition measures the share of dark pixels and of sharp brightness
// changes between raster-adjacent pixels.
func ScoreComposition(img *image.RGBA) CompositionResult {
	pix := img.Pix
	total := len(pix) / 4
	if total == 0 {
		return CompositionResult{}
	}

	var dark, contrast int
	prev := brightness(pix, 0)
	for i := range total {
		cur := prev
		if cur < darkBrightness {
			dark++
		}
		if i+1 < total {
			next := brightness(pix, (i+1)*4)
			if math.Abs(cur-next) > contrastDelta {
				contrast++
			}
			prev = next
		}
	}

	res := CompositionResult{
		DarkPercent:     float64(dark) / float64(total) * 100,
		ContrastPercent: float64(contrast) / float64(total) * 100,
	}
	if res.DarkPercent > darkPercentFlag {
		res.Score += darkContribution
	}
	if res.ContrastPercent > contrastPctFlag {
		res.Score += contrastContrib
	}
	return res
}

// HeuristicBlood returns blood evidence for the frame, or nil.
func HeuristicBlood(img *image.RGBA, frame int) *analysis.Evidence {
	blood := DetectBlood(img)
	if !blood.Present {
		return nil
	}
	return &analysis.Evidence{
		Type:       analysis.TypeBloodDetected,
		Category:   analysis.CategoryViolence,
		Confidence: blood.Confidence,
		Severity:   analysis.SeverityHigh,
		Source:     "color",
		Frame:      frame,
	}
}

// HeuristicComposition returns composition evidence for the frame, or nil.
func HeuristicComposition(img *image.RGBA, frame int) *analysis.Evidence {
	comp := ScoreComposition(img)
	if !comp.Flagged() {
		return nil
	}
	return &analysis.Evidence{
		Type:       analysis.TypeViolenceComposition,
		Category:   analysis.CategoryViolence,
		Confidence: comp.Score,
		Severity:   analysis.SeverityMedium,
		Source:     "composition",
		Frame:      frame,
	}
}

func rgb(img *image.RGBA, x, y int) (r, g, b float64) {
	i := img.PixOffset(x, y)
	return float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
}

func brightness(pix []uint8, i int) float64 {
	return (float64(pix[i]) + float64(pix[i+1]) + float64(pix[i+2])) / 3
}
