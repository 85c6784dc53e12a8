// Package cloud adapts Google Cloud Video Intelligence into an analyzer
// backend. Sources are staged into Cloud Storage for the duration of one
// annotation and removed afterwards.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// Method identifies assessments produced by this analyzer.
const Method = "cloud_video_intelligence"

// Analyzer runs explicit content and label detection remotely.
type Analyzer struct {
	stager    Stager
	annotator Annotator
	prefix    string
	keywords  []string
	now       func() time.Time
	closers   []io.Closer
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock replaces the clock used to name staged objects.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithStagingPrefix sets the object prefix for staged sources.
func WithStagingPrefix(prefix string) Option {
	return func(a *Analyzer) {
		if prefix != "" {
			a.prefix = prefix
		}
	}
}

// New builds the Cloud Storage and Video Intelligence clients from cfg.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Analyzer, error) {
	stager, err := newGCSStager(ctx, cfg)
	if err != nil {
		return nil, err
	}

	annotator, err := newVIAnnotator(ctx, cfg)
	if err != nil {
		stager.Close()
		return nil, err
	}

	a := NewAnalyzer(stager, annotator, logger, WithStagingPrefix(cfg.StagingPrefix))
	a.closers = []io.Closer{stager, annotator}
	return a, nil
}

// NewAnalyzer creates an Analyzer over the given collaborators.
func NewAnalyzer(stager Stager, annotator Annotator, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		stager:    stager,
		annotator: annotator,
		prefix:    "temp-analysis",
		keywords:  analysis.UnsafeKeywords(),
		now:       time.Now,
		logger:    logger.With("system", "cloud-analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Name() string {
	return Method
}

// Start registers client shutdown with the lifecycle coordinator.
func (a *Analyzer) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting cloud analyzer")

	lc.OnShutdown("cloud-analyzer", func(context.Context) error {
		if err := a.Close(); err != nil {
			a.logger.Error("cloud client close failed", "error", err)
			return err
		}
		a.logger.Info("cloud analyzer stopped")
		return nil
	})

	return nil
}

// Close releases the Cloud Storage and Video Intelligence clients.
func (a *Analyzer) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Analyze stages sourcePath, annotates it, and removes the staged object on
// every exit path once it exists.
func (a *Analyzer) Analyze(ctx context.Context, sourcePath string, progress analysis.ProgressFunc) (*analysis.Assessment, error) {
	report := func(pct int, labels []string) {
		if progress != nil {
			progress(analysis.Progress{Percent: pct, Labels: labels})
		}
	}

	object := a.objectName(sourcePath)

	uri, err := a.stager.Stage(ctx, sourcePath, object)
	if err != nil {
		return nil, fmt.Errorf("%w: stage source: %w", analysis.ErrCloudAnalysis, err)
	}
	defer a.remove(object)

	report(33, []string{})

	op, err := a.annotator.Submit(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: submit annotation: %w", analysis.ErrCloudAnalysis, err)
	}

	report(66, []string{})

	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: await annotation: %w", analysis.ErrCloudAnalysis, err)
	}

	assessment := Combine(ParseExplicit(resp), ParseLabels(resp, a.keywords))

	a.logger.InfoContext(ctx, "cloud analysis complete",
		"uri", uri,
		"verdict", assessment.Verdict,
		"confidence", assessment.Confidence,
		"labels", assessment.Labels,
	)

	report(100, assessment.Labels)
	return assessment, nil
}

func (a *Analyzer) objectName(sourcePath string) string {
	return path.Join(a.prefix, fmt.Sprintf("%d-%s", a.now().UnixMilli(), filepath.Base(sourcePath)))
}

func (a *Analyzer) remove(object string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.stager.Remove(ctx, object); err != nil {
		a.logger.Warn("staged object removal failed", "object", object, "error", err)
		return
	}
	a.logger.Debug("staged object removed", "object", object)
}
