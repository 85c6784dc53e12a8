package local

import (
	"math"
	"strings"

	"github.com/JaimeStill/warden/internal/analysis"
)

// Method identifies assessments produced by this analyzer.
const Method = "local_multi_strategy"

const (
	contextWeight    = 0.5
	emptyConfidence  = 95
	safeConfidence   = 95
	flaggedBase      = 50
	flaggedCeiling   = 95
	maxDetailWeapons = 10
	maxDetailViolent = 10
	maxDetailContext = 5
)

// FrameResult is the fused evidence of one frame.
type FrameResult struct {
	Index      int
	Evidence   []analysis.Evidence
	Risk       float64
	Confidence int
}

// ScoreFrame computes a frame's capped risk and mean evidence confidence.
// Context evidence contributes at half weight.
func ScoreFrame(index int, evidence []analysis.Evidence) FrameResult {
	fr := FrameResult{Index: index, Evidence: evidence, Confidence: emptyConfidence}
	if len(evidence) == 0 {
		return fr
	}

	var risk float64
	var conf int
	for _, e := range evidence {
		r := e.Severity.Weight() * float64(e.Confidence) / 100
		if e.Category == analysis.CategoryContext {
			r *= contextWeight
		}
		risk += r
		conf += e.Confidence
	}

	fr.Risk = min(risk, 100)
	fr.Confidence = int(math.Round(float64(conf) / float64(len(evidence))))
	return fr
}

// Risk summarizes frame risks across a whole video.
type Risk struct {
	Avg  float64
	Peak float64
}

// Combined weights the peak frame above the average.
func (r Risk) Combined() float64 {
	return 0.4*r.Avg + 0.6*r.Peak
}

// Decide applies the decision policy in order: mandatory flags set a
// severity floor, risk thresholds raise severity, and an empty label set
// overrides everything to safe.
func Decide(r Risk, labels []string) (analysis.Verdict, analysis.Severity) {
	verdict := analysis.VerdictSafe
	severity := analysis.SeverityNone

	var mandatory bool
	critical, high := false, false
	for _, l := range labels {
		floor, ok := analysis.MandatoryFloor(strings.ToLower(l))
		if !ok {
			continue
		}
		mandatory = true
		switch floor {
		case analysis.SeverityCritical:
			critical = true
		case analysis.SeverityHigh:
			high = true
		}
	}
	if mandatory {
		verdict = analysis.VerdictFlagged
		switch {
		case critical:
			severity = analysis.SeverityCritical
		case high:
			severity = analysis.SeverityHigh
		default:
			severity = analysis.SeverityMedium
		}
	}

	combined := r.Combined()
	switch {
	case r.Peak > 60 || combined > 40:
		verdict = analysis.VerdictFlagged
		floor := analysis.SeverityHigh
		if r.Peak > 80 {
			floor = analysis.SeverityCritical
		}
		severity = severity.AtLeast(floor)
	case r.Peak > 40 || combined > 25:
		verdict = analysis.VerdictFlagged
		severity = severity.AtLeast(analysis.SeverityMedium)
	case r.Peak > 20 || combined > 15:
		verdict = analysis.VerdictFlagged
		severity = severity.AtLeast(analysis.SeverityLow)
	}

	if len(labels) == 0 {
		return analysis.VerdictSafe, analysis.SeverityNone
	}

	return verdict, severity
}

// Fuse reduces per-frame results to one assessment.
func Fuse(frames []FrameResult) *analysis.Assessment {
	var risk Risk
	var labels analysis.LabelSet
	var weapons, violence, context []analysis.Evidence

	for _, f := range frames {
		risk.Avg += f.Risk
		risk.Peak = max(risk.Peak, f.Risk)
		for _, e := range f.Evidence {
			switch e.Category {
			case analysis.CategoryWeapons:
				weapons = append(weapons, e)
				labels.Add(e.Type)
			case analysis.CategoryViolence:
				violence = append(violence, e)
				labels.Add(e.Type)
			case analysis.CategoryContext:
				context = append(context, e)
			}
		}
	}
	if len(frames) > 0 {
		risk.Avg /= float64(len(frames))
	}

	verdict, severity := Decide(risk, labels.Slice())
	combined := risk.Combined()

	a := &analysis.Assessment{
		Verdict:    verdict,
		Confidence: safeConfidence,
		Labels:     []string{},
	}
	if verdict == analysis.VerdictFlagged {
		a.Confidence = min(int(math.Round(combined))+flaggedBase, flaggedCeiling)
		a.Labels = labels.Slice()
	}

	a.Details = analysis.Details{
		analysis.DetailMethod: Method,
		"totalFramesAnalyzed": len(frames),
		"severity":            severity,
		"riskScore":           int(math.Round(combined)),
		"avgRiskScore":        round1(risk.Avg),
		"peakRiskScore":       round1(risk.Peak),
		"combinedRiskScore":   round1(combined),
		"weaponDetections":    summarize(weapons, maxDetailWeapons),
		"violenceIndicators":  summarize(violence, maxDetailViolent),
		"contextualFlags":     summarize(context, maxDetailContext),
	}

	return a
}

func summarize(ev []analysis.Evidence, limit int) map[string]any {
	details := ev[:min(len(ev), limit)]
	if details == nil {
		details = []analysis.Evidence{}
	}
	return map[string]any{
		"total":   len(ev),
		"details": details,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
