package local

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/JaimeStill/warden/internal/analysis"
)

// SimilarityThreshold is the normalized edit similarity above which a
// detector label is treated as a taxonomy token.
const SimilarityThreshold = 0.75

// Similarity returns 1 - distance/len(longer) for a and b. Two empty
// strings are identical.
func Similarity(a, b string) float64 {
	longer := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longer == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return float64(longer-d) / float64(longer)
}

// MatchClasses returns every class in classes whose tokens match label and
// whose floor score admits it, in taxonomy order. Containment always
// matches; fuzzy enables edit-similarity matching.
func MatchClasses(label string, score float64, classes []analysis.Class, fuzzy bool) []analysis.Class {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil
	}

	var out []analysis.Class
	for _, c := range classes {
		if score < c.Floor {
			continue
		}
		if slices.ContainsFunc(c.Tokens, func(tok string) bool {
			return strings.Contains(label, tok) || (fuzzy && Similarity(label, tok) > SimilarityThreshold)
		}) {
			out = append(out, c)
		}
	}
	return out
}

func evidenceFor(c analysis.Class, d Detection, frame int) analysis.Evidence {
	return analysis.Evidence{
		Type:       c.Type,
		Category:   c.Category,
		Confidence: analysis.ClampConfidence(int(math.Round(d.Score * 100))),
		Severity:   c.Severity,
		Source:     d.Label,
		Frame:      frame,
	}
}

// ObjectEvidence matches object detections against the weapon and violence classes.
func ObjectEvidence(detections []Detection, frame int) []analysis.Evidence {
	classes := analysis.Classes(analysis.CategoryWeapons, analysis.CategoryViolence)

	var out []analysis.Evidence
	for _, d := range detections {
		for _, c := range MatchClasses(d.Label, d.Score, classes, true) {
			out = append(out, evidenceFor(c, d, frame))
		}
	}
	return out
}

// SceneEvidence matches scene labels against the context classes by containment.
func SceneEvidence(detections []Detection, frame int) []analysis.Evidence {
	classes := analysis.Classes(analysis.CategoryContext)

	var out []analysis.Evidence
	for _, d := range detections {
		for _, c := range MatchClasses(d.Label, d.Score, classes, false) {
			out = append(out, evidenceFor(c, d, frame))
		}
	}
	return out
}
