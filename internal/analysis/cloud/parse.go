package cloud

import (
	"math"
	"strings"

	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"

	"github.com/JaimeStill/warden/internal/analysis"
)

const (
	// LabelExplicit is reported when explicit content reaches POSSIBLE or above.
	LabelExplicit = "EXPLICIT_CONTENT"

	defaultSegmentConfidence = 0.8
	noExplicitConfidence     = 95
	noLabelsConfidence       = 90
	cleanLabelsConfidence    = 95
)

var likelihoodConfidence = map[videointelligencepb.Likelihood]float64{
	videointelligencepb.Likelihood_VERY_UNLIKELY: 5,
	videointelligencepb.Likelihood_UNLIKELY:      20,
	videointelligencepb.Likelihood_POSSIBLE:      50,
	videointelligencepb.Likelihood_LIKELY:        75,
	videointelligencepb.Likelihood_VERY_LIKELY:   95,
}

// Result is the outcome of one annotation feature.
type Result struct {
	Flagged    bool
	Confidence int
	Labels     []string
	Details    map[string]any
}

func firstResult(resp *videointelligencepb.AnnotateVideoResponse) *videointelligencepb.VideoAnnotationResults {
	results := resp.GetAnnotationResults()
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// ParseExplicit scores the explicit content annotation. The verdict follows
// the highest likelihood; confidence follows the mean likelihood.
func ParseExplicit(resp *videointelligencepb.AnnotateVideoResponse) Result {
	frames := firstResult(resp).GetExplicitAnnotation().GetFrames()
	if len(frames) == 0 {
		return Result{
			Confidence: noExplicitConfidence,
			Labels:     []string{},
			Details:    map[string]any{"totalFramesAnalyzed": 0},
		}
	}

	maxLikelihood := videointelligencepb.Likelihood_VERY_UNLIKELY
	var total float64
	for _, f := range frames {
		l := f.GetPornographyLikelihood()
		total += likelihoodConfidence[l]
		if l > maxLikelihood {
			maxLikelihood = l
		}
	}

	avg := int(math.Round(total / float64(len(frames))))
	res := Result{
		Flagged:    maxLikelihood >= videointelligencepb.Likelihood_POSSIBLE,
		Confidence: 100 - avg,
		Labels:     []string{},
		Details: map[string]any{
			"maxLikelihood":       maxLikelihood.String(),
			"totalFramesAnalyzed": len(frames),
		},
	}
	if res.Flagged {
		res.Confidence = avg
		res.Labels = []string{LabelExplicit}
	}
	return res
}

// ParseLabels matches segment and shot labels against the unsafe keywords.
func ParseLabels(resp *videointelligencepb.AnnotateVideoResponse, keywords []string) Result {
	r := firstResult(resp)
	annotations := append(
		append([]*videointelligencepb.LabelAnnotation{}, r.GetSegmentLabelAnnotations()...),
		r.GetShotLabelAnnotations()...,
	)

	if len(annotations) == 0 {
		return Result{
			Confidence: noLabelsConfidence,
			Labels:     []string{},
			Details:    map[string]any{"totalLabelsAnalyzed": 0},
		}
	}

	type unsafeLabel struct {
		Label      string `json:"label"`
		Confidence int    `json:"confidence"`
	}

	var (
		found   []unsafeLabel
		labels  analysis.LabelSet
		maxConf float64
	)
	for _, a := range annotations {
		desc := a.GetEntity().GetDescription()
		if !containsAny(strings.ToLower(desc), keywords) {
			continue
		}
		conf := annotationConfidence(a)
		found = append(found, unsafeLabel{Label: desc, Confidence: int(math.Round(conf * 100))})
		labels.Add(desc)
		maxConf = max(maxConf, conf)
	}

	res := Result{
		Flagged:    len(found) > 0,
		Confidence: cleanLabelsConfidence,
		Labels:     labels.Slice(),
		Details: map[string]any{
			"unsafeLabelsFound":   found,
			"totalLabelsAnalyzed": len(annotations),
		},
	}
	if res.Flagged {
		res.Confidence = analysis.ClampConfidence(int(math.Round(maxConf * 100)))
	}
	return res
}

func annotationConfidence(a *videointelligencepb.LabelAnnotation) float64 {
	var best float32
	for _, s := range a.GetSegments() {
		best = max(best, s.GetConfidence())
	}
	for _, f := range a.GetFrames() {
		best = max(best, f.GetConfidence())
	}
	if best == 0 {
		return defaultSegmentConfidence
	}
	return float64(best)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Combine merges both features: flagged if either is, the higher
// confidence, and the union of labels.
func Combine(explicit, labels Result) *analysis.Assessment {
	var set analysis.LabelSet
	set.Add(explicit.Labels...)
	set.Add(labels.Labels...)

	a := &analysis.Assessment{
		Verdict:    analysis.VerdictSafe,
		Confidence: max(explicit.Confidence, labels.Confidence),
		Labels:     set.Slice(),
		Details: analysis.Details{
			analysis.DetailMethod: Method,
			"explicitContent":     explicit.Details,
			"labelDetection":      labels.Details,
			"combinedResult": map[string]any{
				"explicitFlagged": explicit.Flagged,
				"labelsFlagged":   labels.Flagged,
			},
		},
	}
	if explicit.Flagged || labels.Flagged {
		a.Verdict = analysis.VerdictFlagged
	}
	return a
}
