package moderation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/broadcast"
	"github.com/JaimeStill/warden/internal/videos"
)

// State bag keys.
const (
	KeyJobID      = "job_id"
	KeyThumbnail  = "thumbnail"
	KeyBackend    = "backend"
	KeyAssessment = "assessment"
)

const (
	thumbnailOffset = time.Second
	thumbnailWidth  = 320
	thumbnailHeight = 240
)

// probeNode decodes the source end to end, reporting into the first 10% of
// job progress.
func probeNode(rt *Runtime, r *run) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		err := rt.Media.Probe(ctx, r.job.SourcePath, func(f float64) {
			if p, ok := r.tracker.Probe(f); ok {
				publishProgress(ctx, rt, r, broadcast.UploadProgress(r.job.ID, p))
			}
		})
		if err != nil {
			return s, r.fail(fmt.Errorf("%w: %w", ErrProbe, err))
		}

		if err := r.tracker.Advance(PhaseAnalyzing); err != nil {
			return s, r.fail(err)
		}

		r.logger.InfoContext(ctx, "probe complete", "progress", r.tracker.Progress())
		return s, nil
	})
}

// thumbnailNode is best-effort: failures are logged and the job continues.
func thumbnailNode(rt *Runtime, r *run) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		if rt.Storage == nil {
			return s, nil
		}

		key, err := captureThumbnail(ctx, rt, r.job)
		if err != nil {
			r.logger.WarnContext(ctx, "thumbnail skipped", "error", err)
			return s, nil
		}

		return s.Set(KeyThumbnail, key), nil
	})
}

func selectNode(rt *Runtime, r *run) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		backend := SelectBackend(ctx, rt, r.job.OwnerID, r.logger)
		r.logger.InfoContext(ctx, "analyzer selected", "backend", backend)
		return s.Set(KeyBackend, backend), nil
	})
}

// analyzeNode runs the selected analyzer, mapping its progress into the
// remaining 90% of job progress.
func analyzeNode(rt *Runtime, r *run) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		backend, err := extractBackend(s)
		if err != nil {
			return s, r.fail(err)
		}

		progress := func(p analysis.Progress) {
			if v, ok := r.tracker.Analysis(p.Percent); ok {
				publishProgress(ctx, rt, r, broadcast.AnalysisProgress(r.job.ID, v, p.Labels))
			}
		}

		a, err := analyze(ctx, rt, r, backend, progress)
		if err != nil {
			return s, r.fail(err)
		}
		a.Confidence = analysis.ClampConfidence(a.Confidence)

		r.logger.InfoContext(
			ctx, "analysis complete",
			"method", a.Details.Method(),
			"verdict", a.Verdict,
			"confidence", a.Confidence,
			"labels", len(a.Labels),
		)

		return s.Set(KeyAssessment, a), nil
	})
}

// persistNode writes the verdict, falling back to a status-only write.
func persistNode(rt *Runtime, r *run) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		a, err := extractAssessment(s)
		if err != nil {
			return s, r.fail(err)
		}

		sensitivity := videos.Sensitivity(a.Verdict)
		err = rt.Videos.UpdateWithAnalysis(ctx, r.job.ID, videos.Analysis{
			Sensitivity: sensitivity,
			Confidence:  a.Confidence,
			Labels:      a.Labels,
			Details:     a.Details,
		})
		if err == nil {
			return s, nil
		}

		r.logger.WarnContext(ctx, "persist analysis failed, writing verdict only", "error", err)

		minimal := videos.StatusUpdate{
			Status:      videos.StatusCompleted,
			Sensitivity: sensitivity,
			Progress:    100,
		}
		if ferr := rt.Videos.UpdateStatus(ctx, r.job.ID, minimal); ferr != nil {
			return s, r.fail(fmt.Errorf("%w: %w", ErrPersistence, errors.Join(err, ferr)))
		}

		return s, nil
	})
}

// analyze retries once on the local analyzer when the cloud analyzer fails.
func analyze(
	ctx context.Context,
	rt *Runtime,
	r *run,
	backend analysis.Backend,
	progress analysis.ProgressFunc,
) (*analysis.Assessment, error) {
	analyzer, err := rt.Analyzers.Get(backend)
	if err != nil {
		return nil, err
	}

	a, err := analyzer.Analyze(ctx, r.job.SourcePath, progress)
	if err == nil || backend != analysis.BackendCloud {
		return a, err
	}

	r.logger.WarnContext(ctx, "cloud analysis failed, falling back to local", "error", err)

	local, lerr := rt.Analyzers.Get(analysis.BackendLocal)
	if lerr != nil {
		return nil, errors.Join(err, lerr)
	}
	return local.Analyze(ctx, r.job.SourcePath, progress)
}

func captureThumbnail(ctx context.Context, rt *Runtime, job Job) (string, error) {
	dir, err := os.MkdirTemp("", "warden-thumb-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp directory: %w", ErrThumbnail, err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, "thumbnail.jpg")
	if err := rt.Media.Thumbnail(ctx, job.SourcePath, dst, thumbnailOffset, thumbnailWidth, thumbnailHeight); err != nil {
		return "", fmt.Errorf("%w: %w", ErrThumbnail, err)
	}

	f, err := os.Open(dst)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrThumbnail, err)
	}
	defer f.Close()

	key := rt.Storage.ThumbnailKey(job.ID.String())
	if err := rt.Storage.Upload(ctx, key, f, "image/jpeg"); err != nil {
		return "", fmt.Errorf("%w: %w", ErrThumbnail, err)
	}

	if err := rt.Videos.UpdateFields(ctx, job.ID, videos.Fields{Thumbnail: &key}); err != nil {
		// no row references the blob
		if derr := rt.Storage.Delete(ctx, key); derr != nil {
			err = errors.Join(err, derr)
		}
		return "", fmt.Errorf("%w: record thumbnail: %w", ErrThumbnail, err)
	}

	return key, nil
}

// publishProgress persists progress only when the broadcaster emitted it.
func publishProgress(ctx context.Context, rt *Runtime, r *run, e broadcast.Event) {
	if !rt.Broadcast.Publish(r.job.OwnerID, e) {
		return
	}

	update := videos.StatusUpdate{
		Status:      videos.StatusProcessing,
		Sensitivity: videos.SensitivityUnchecked,
		Progress:    e.Progress,
	}
	if err := rt.Videos.UpdateStatus(ctx, r.job.ID, update); err != nil {
		r.logger.WarnContext(ctx, "persist progress failed", "progress", e.Progress, "error", err)
	}
}

func extractBackend(s state.State) (analysis.Backend, error) {
	val, ok := s.Get(KeyBackend)
	if !ok {
		return "", fmt.Errorf("missing %s in state", KeyBackend)
	}

	b, ok := val.(analysis.Backend)
	if !ok {
		return "", fmt.Errorf("%s is not analysis.Backend", KeyBackend)
	}
	return b, nil
}

func extractAssessment(s state.State) (*analysis.Assessment, error) {
	val, ok := s.Get(KeyAssessment)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyAssessment)
	}

	a, ok := val.(*analysis.Assessment)
	if !ok || a == nil {
		return nil, fmt.Errorf("%s is not *analysis.Assessment", KeyAssessment)
	}
	return a, nil
}
