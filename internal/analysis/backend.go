package analysis

import (
	"context"
	"fmt"
)

// Backend selects which analyzer runs a job.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendCloud  Backend = "cloud"
	BackendHybrid Backend = "hybrid"
)

// Registry resolves a Backend to its Analyzer.
type Registry struct {
	analyzers map[Backend]Analyzer
}

// NewRegistry creates a Registry. A nil analyzer leaves that backend unavailable.
func NewRegistry(local, cloud Analyzer) *Registry {
	r := &Registry{analyzers: make(map[Backend]Analyzer)}
	if local != nil {
		r.analyzers[BackendLocal] = local
		r.analyzers[BackendHybrid] = NewHybrid(local)
	}
	if cloud != nil {
		r.analyzers[BackendCloud] = cloud
	}
	return r
}

// Get returns the analyzer for b or ErrUnavailable.
func (r *Registry) Get(b Backend) (Analyzer, error) {
	a, ok := r.analyzers[b]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, b)
	}
	return a, nil
}

// Has reports whether b has a registered analyzer.
func (r *Registry) Has(b Backend) bool {
	_, ok := r.analyzers[b]
	return ok
}

// Hybrid is the composition strategy for owners preferring hybrid analysis.
// It currently runs the local analyzer alone; whether it should also run the
// cloud analyzer and fuse both assessments is undecided.
type Hybrid struct {
	local Analyzer
}

// NewHybrid wraps the local analyzer.
func NewHybrid(local Analyzer) *Hybrid {
	return &Hybrid{local: local}
}

func (h *Hybrid) Name() string {
	return h.local.Name()
}

func (h *Hybrid) Analyze(ctx context.Context, sourcePath string, progress ProgressFunc) (*Assessment, error) {
	return h.local.Analyze(ctx, sourcePath, progress)
}
