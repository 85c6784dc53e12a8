// Package analysis defines the contract shared by every moderation backend:
// evidence, severities, the risk assessment both backends produce, and the
// taxonomy of unsafe content classes.
package analysis

import (
	"context"
	"strings"
)

// Verdict is the safety outcome of an analysis.
type Verdict string

const (
	VerdictSafe    Verdict = "safe"
	VerdictFlagged Verdict = "flagged"
)

// Details is the backend-specific diagnostic payload. Every backend sets
// DetailMethod to identify itself.
type Details map[string]any

// DetailMethod is the Details key naming the strategy that produced an assessment.
const DetailMethod = "method"

// Method returns the producing strategy, or "" if unset.
func (d Details) Method() string {
	m, _ := d[DetailMethod].(string)
	return m
}

// Assessment is the risk assessment produced by every analyzer backend.
type Assessment struct {
	Verdict    Verdict  `json:"sensitivity_status"`
	Confidence int      `json:"confidence"`
	Labels     []string `json:"detected_labels"`
	Details    Details  `json:"details"`
}

// Progress is an analyzer-local progress report in [0,100].
type Progress struct {
	Percent int
	Labels  []string
}

// ProgressFunc receives progress reports. Implementations must not block.
type ProgressFunc func(Progress)

// Analyzer produces an Assessment for a source video.
type Analyzer interface {
	// Name identifies the strategy, matching Details.Method of its assessments.
	Name() string
	Analyze(ctx context.Context, sourcePath string, progress ProgressFunc) (*Assessment, error)
}

// ClampConfidence bounds c to [0,100].
func ClampConfidence(c int) int {
	return min(max(c, 0), 100)
}

// LabelSet accumulates upper-cased labels in first-seen order.
type LabelSet struct {
	seen   map[string]struct{}
	labels []string
}

// Add inserts labels not already present.
func (s *LabelSet) Add(labels ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, l := range labels {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := s.seen[l]; ok {
			continue
		}
		s.seen[l] = struct{}{}
		s.labels = append(s.labels, l)
	}
}

// Len returns the number of distinct labels.
func (s *LabelSet) Len() int {
	return len(s.labels)
}

// Has reports whether label (case-insensitive) is present.
func (s *LabelSet) Has(label string) bool {
	_, ok := s.seen[strings.ToUpper(label)]
	return ok
}

// Slice returns a copy of the labels in insertion order, never nil.
func (s *LabelSet) Slice() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}
