// Package moderation drives video jobs through the moderation pipeline:
// probe, thumbnail, analyzer selection, analysis and persistence.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/broadcast"
	"github.com/JaimeStill/warden/internal/videos"
	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// Job identifies one video to moderate.
type Job struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	SourcePath string
}

// Orchestrator runs jobs. Each job runs on its own goroutine with no limit
// on concurrent jobs.
type Orchestrator struct {
	rt     *Runtime
	logger *slog.Logger
	jobs   sync.WaitGroup
}

// New creates an Orchestrator over rt.
func New(rt *Runtime) *Orchestrator {
	return &Orchestrator{
		rt:     rt,
		logger: rt.Logger.With("system", "moderation"),
	}
}

// Register makes shutdown wait for in-flight jobs.
func (o *Orchestrator) Register(lc *lifecycle.Coordinator) {
	lc.OnShutdown("moderation", func(ctx context.Context) error {
		o.logger.Info("waiting for in-flight jobs")

		done := make(chan struct{})
		go func() {
			o.jobs.Wait()
			close(done)
		}()

		select {
		case <-done:
			o.logger.Info("moderation stopped")
			return nil
		case <-ctx.Done():
			return fmt.Errorf("in-flight jobs: %w", ctx.Err())
		}
	})
}

// Start runs job in the background. The job outlives ctx's cancellation.
func (o *Orchestrator) Start(ctx context.Context, job Job) {
	ctx = context.WithoutCancel(ctx)
	o.jobs.Go(func() {
		o.Run(ctx, job)
	})
}

// Wait blocks until every started job has finished.
func (o *Orchestrator) Wait() {
	o.jobs.Wait()
}

type run struct {
	job     Job
	tracker *Tracker
	logger  *slog.Logger
	cause   error
}

func (r *run) fail(err error) error {
	r.cause = err
	return err
}

// Run drives job to a terminal state and returns its assessment, or the
// error recorded on the failed job.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*analysis.Assessment, error) {
	r := &run{
		job:     job,
		tracker: NewTracker(),
		logger:  o.logger.With("job_id", job.ID, "owner_id", job.OwnerID),
	}
	defer o.rt.Broadcast.Forget(job.ID)

	if err := o.begin(ctx, r); err != nil {
		return nil, o.terminate(ctx, r, err)
	}

	graph, err := o.buildGraph(r)
	if err != nil {
		return nil, o.terminate(ctx, r, fmt.Errorf("build graph: %w", err))
	}

	initial := state.New(nil).Set(KeyJobID, job.ID)
	final, err := graph.Execute(ctx, initial)
	if err != nil {
		if r.cause != nil {
			err = r.cause
		}
		return nil, o.terminate(ctx, r, err)
	}

	a, err := extractAssessment(final)
	if err != nil {
		return nil, o.terminate(ctx, r, err)
	}

	o.complete(ctx, r, a)
	return a, nil
}

func (o *Orchestrator) begin(ctx context.Context, r *run) error {
	if err := r.tracker.Advance(PhaseProbing); err != nil {
		return err
	}

	update := videos.StatusUpdate{
		Status:      videos.StatusProcessing,
		Sensitivity: videos.SensitivityUnchecked,
	}
	if err := o.rt.Videos.UpdateStatus(ctx, r.job.ID, update); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	o.rt.Broadcast.Publish(r.job.OwnerID, broadcast.StatusChanged(r.job.ID, videos.StatusProcessing, videos.SensitivityUnchecked))
	r.logger.InfoContext(ctx, "job started", "source", r.job.SourcePath)
	return nil
}

func (o *Orchestrator) buildGraph(r *run) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("warden-moderate")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{"probe", probeNode(o.rt, r)},
		{"thumbnail", thumbnailNode(o.rt, r)},
		{"select", selectNode(o.rt, r)},
		{"analyze", analyzeNode(o.rt, r)},
		{"persist", persistNode(o.rt, r)},
	}

	for i, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		if err := graph.AddEdge(nodes[i-1].name, n.name, nil); err != nil {
			return nil, err
		}
	}

	if err := graph.SetEntryPoint("probe"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("persist"); err != nil {
		return nil, err
	}

	return graph, nil
}

func (o *Orchestrator) complete(ctx context.Context, r *run, a *analysis.Assessment) {
	if err := r.tracker.Advance(PhaseCompleted); err != nil {
		r.logger.WarnContext(ctx, "phase transition rejected", "error", err)
	}

	sensitivity := videos.Sensitivity(a.Verdict)
	o.rt.Broadcast.Publish(r.job.OwnerID, broadcast.StatusChanged(r.job.ID, videos.StatusCompleted, sensitivity))
	o.rt.Broadcast.Publish(r.job.OwnerID, broadcast.AnalysisProgress(r.job.ID, 100, a.Labels))

	r.logger.InfoContext(
		ctx, "job completed",
		"verdict", a.Verdict,
		"confidence", a.Confidence,
		"method", a.Details.Method(),
	)
}

// terminate marks the job failed with cause, freezing progress at its last
// value, and returns cause.
func (o *Orchestrator) terminate(ctx context.Context, r *run, cause error) error {
	if err := r.tracker.Advance(PhaseFailed); err != nil {
		r.logger.WarnContext(ctx, "phase transition rejected", "error", err)
	}

	update := videos.StatusUpdate{
		Status:      videos.StatusFailed,
		Sensitivity: videos.SensitivityUnchecked,
		Progress:    r.tracker.Progress(),
		Error:       cause.Error(),
	}
	if err := o.rt.Videos.UpdateStatus(ctx, r.job.ID, update); err != nil {
		r.logger.ErrorContext(ctx, "persist failure failed", "error", err)
	}

	o.rt.Broadcast.Publish(r.job.OwnerID, broadcast.StatusChanged(r.job.ID, videos.StatusFailed, videos.SensitivityUnchecked))
	r.logger.ErrorContext(ctx, "job failed", "progress", r.tracker.Progress(), "error", cause)
	return cause
}
