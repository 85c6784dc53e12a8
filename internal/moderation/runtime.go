package moderation

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/accounts"
	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/broadcast"
	"github.com/JaimeStill/warden/internal/videos"
)

// Store is the job persistence the pipeline writes through.
type Store interface {
	Create(ctx context.Context, cmd videos.CreateCommand) (*videos.Video, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, u videos.StatusUpdate) error
	UpdateWithAnalysis(ctx context.Context, id uuid.UUID, a videos.Analysis) error
	UpdateFields(ctx context.Context, id uuid.UUID, f videos.Fields) error
}

// Preferences reads an owner's analyzer preference.
type Preferences interface {
	Preference(ctx context.Context, owner uuid.UUID) (accounts.Preference, error)
}

// Assigner decides whether an owner may use the cloud analyzer.
type Assigner interface {
	CanAssign(ctx context.Context, owner uuid.UUID) (bool, error)
}

// Media runs the transcode probe and thumbnail capture.
type Media interface {
	Probe(ctx context.Context, src string, onProgress func(float64)) error
	Thumbnail(ctx context.Context, src, dst string, offset time.Duration, width, height int) error
}

// Blobs stores generated thumbnails.
type Blobs interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	ThumbnailKey(id string) string
}

// Publisher delivers job events to the owner.
type Publisher interface {
	Publish(owner uuid.UUID, e broadcast.Event) bool
	Forget(job uuid.UUID)
}

// Runtime bundles the collaborators a job needs. Storage may be nil, which
// disables thumbnails.
type Runtime struct {
	Videos    Store
	Accounts  Preferences
	Quota     Assigner
	Analyzers *analysis.Registry
	Media     Media
	Storage   Blobs
	Broadcast Publisher
	Logger    *slog.Logger
}
