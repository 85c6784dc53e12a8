package accounts

import (
	"context"

	"github.com/google/uuid"
)

// System defines the account contract used by analyzer selection.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, id uuid.UUID) (*Account, error)
	// Preference returns ErrNotFound for owners that never chose one.
	Preference(ctx context.Context, id uuid.UUID) (Preference, error)
	// CountCloud returns the number of owners holding a cloud assignment.
	CountCloud(ctx context.Context) (int, error)
	// SetPreference upserts the preference. Moving to cloud fails with
	// ErrQuotaFull when capacity is reached.
	SetPreference(ctx context.Context, id uuid.UUID, p Preference) (*Account, error)
}
