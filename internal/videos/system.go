package videos

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/pagination"
	"github.com/JaimeStill/warden/pkg/storage"
)

// System defines the persistence contract for moderation jobs.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Video], error)
	Find(ctx context.Context, id uuid.UUID) (*Video, error)
	Create(ctx context.Context, cmd CreateCommand) (*Video, error)

	// UpdateStatus affects only active jobs; a terminal job returns ErrNotActive.
	UpdateStatus(ctx context.Context, id uuid.UUID, u StatusUpdate) error
	// UpdateWithAnalysis completes an active job with its verdict.
	UpdateWithAnalysis(ctx context.Context, id uuid.UUID, a Analysis) error
	UpdateFields(ctx context.Context, id uuid.UUID, f Fields) error

	Thumbnail(ctx context.Context, id uuid.UUID) (*storage.Blob, error)
}
