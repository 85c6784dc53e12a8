package moderation

import (
	"fmt"
	"math"
	"slices"
	"sync"
)

// Phase is a job's position in the pipeline.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseProbing   Phase = "probing"
	PhaseAnalyzing Phase = "analyzing"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

var transitions = map[Phase][]Phase{
	PhasePending:   {PhaseProbing, PhaseFailed},
	PhaseProbing:   {PhaseAnalyzing, PhaseFailed},
	PhaseAnalyzing: {PhaseCompleted, PhaseFailed},
}

// Terminal reports whether p is completed or failed.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// CanAdvance reports whether the pipeline may move from p to next.
func (p Phase) CanAdvance(next Phase) bool {
	return slices.Contains(transitions[p], next)
}

// probeShare is the slice of job progress owned by probing. Analysis owns the rest.
const probeShare = 10

// Tracker holds one job's phase and overall progress. Progress never
// decreases, so an analyzer that restarts (the local fallback after a cloud
// failure) cannot move the job backwards.
type Tracker struct {
	mu       sync.Mutex
	phase    Phase
	progress int
}

// NewTracker returns a tracker for a pending job.
func NewTracker() *Tracker {
	return &Tracker{phase: PhasePending}
}

func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *Tracker) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Advance moves the tracker to next.
func (t *Tracker) Advance(next Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.phase.CanAdvance(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.phase, next)
	}
	t.phase = next
	return nil
}

// Probe maps a probe fraction in [0,1] onto job progress [0,10]. It returns
// the job progress and whether it advanced.
func (t *Tracker) Probe(fraction float64) (int, bool) {
	fraction = min(max(fraction, 0), 1)
	return t.raise(int(math.Round(fraction * probeShare)))
}

// Analysis maps analyzer progress in [0,100] onto job progress [10,100].
func (t *Tracker) Analysis(percent int) (int, bool) {
	percent = min(max(percent, 0), 100)
	share := float64(100-probeShare) / 100
	return t.raise(probeShare + int(math.Round(float64(percent)*share)))
}

func (t *Tracker) raise(v int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v <= t.progress {
		return t.progress, false
	}
	t.progress = v
	return v, true
}
