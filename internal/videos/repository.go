package videos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/pagination"
	"github.com/JaimeStill/warden/pkg/query"
	"github.com/JaimeStill/warden/pkg/repository"
	"github.com/JaimeStill/warden/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a video repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "videos"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Video], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereContains("Filename", page.Search)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	var p repository.Page
	p.CountSQL, p.CountArgs = qb.BuildCount()
	p.PageSQL, p.PageArgs = qb.BuildPage(page.Page, page.PageSize)

	videos, total, err := repository.QueryPage(ctx, r.db, p, scanVideo)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	result := pagination.NewPageResult(videos, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Video, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	v, err := repository.QueryOne(ctx, r.db, q, args, scanVideo)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &v, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Video, error) {
	q := `
		INSERT INTO videos AS v (id, owner_id, filename, source_path)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + projection.Columns()

	args := []any{uuid.New(), cmd.OwnerID, cmd.Filename, cmd.SourcePath}

	v, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Video, error) {
		return repository.QueryOne(ctx, tx, q, args, scanVideo)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("video registered", "id", v.ID, "owner_id", v.OwnerID, "filename", v.Filename)
	return &v, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, u StatusUpdate) error {
	var errText *string
	if u.Error != "" {
		errText = &u.Error
	}

	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE videos
		SET status = $2,
			sensitivity_status = $3,
			progress = GREATEST(progress, $4),
			analysis_error = COALESCE($5, analysis_error),
			updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')`,
		id, u.Status, u.Sensitivity, clampProgress(u.Progress), errText,
	)

	return r.mapUpdateError(ctx, id, err)
}

func (r *repo) UpdateWithAnalysis(ctx context.Context, id uuid.UUID, a Analysis) error {
	labels, err := json.Marshal(nonNil(a.Labels))
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}

	details, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("encode analysis details: %w", err)
	}

	err = repository.ExecExpectOne(ctx, r.db, `
		UPDATE videos
		SET status = 'completed',
			sensitivity_status = $2,
			confidence = $3,
			detected_labels = $4,
			analysis_details = $5,
			progress = 100,
			analysis_error = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')`,
		id, a.Sensitivity, a.Confidence, labels, details,
	)

	return r.mapUpdateError(ctx, id, err)
}

func (r *repo) UpdateFields(ctx context.Context, id uuid.UUID, f Fields) error {
	err := repository.ExecExpectOne(ctx, r.db, `
		UPDATE videos
		SET thumbnail = COALESCE($2, thumbnail),
			updated_at = NOW()
		WHERE id = $1`,
		id, f.Thumbnail,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) Thumbnail(ctx context.Context, id uuid.UUID) (*storage.Blob, error) {
	v, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Thumbnail == nil {
		return nil, ErrNoThumbnail
	}
	return r.storage.Download(ctx, *v.Thumbnail)
}

// mapUpdateError distinguishes a missing row from a terminal one when a
// guarded update affected nothing.
func (r *repo) mapUpdateError(ctx context.Context, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if repository.IsCheckViolation(err) {
		return fmt.Errorf("%w: %w", ErrInvalidVideo, err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if _, findErr := r.Find(ctx, id); findErr != nil {
		return findErr
	}
	return ErrNotActive
}

func clampProgress(p int) int {
	return min(max(p, 0), 100)
}

func nonNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
