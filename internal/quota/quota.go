// Package quota arbitrates the capacity-limited cloud analyzer. It reads the
// number of owners holding a cloud preference and never records assignments
// itself.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/accounts"
)

// DefaultCapacity is the number of owners that may hold a cloud assignment.
const DefaultCapacity = 5

// Ledger reports cloud assignments.
type Ledger interface {
	Preference(ctx context.Context, owner uuid.UUID) (accounts.Preference, error)
	CountCloud(ctx context.Context) (int, error)
}

// Status is a snapshot of cloud analyzer capacity.
type Status struct {
	Current   int  `json:"current"`
	Max       int  `json:"max"`
	Available int  `json:"available"`
	IsFull    bool `json:"isFull"`
}

// Governor decides whether an owner may use the cloud analyzer.
type Governor struct {
	ledger   Ledger
	capacity int
	logger   *slog.Logger
}

// New creates a Governor. A non-positive capacity uses DefaultCapacity.
func New(ledger Ledger, capacity int, logger *slog.Logger) *Governor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Governor{
		ledger:   ledger,
		capacity: capacity,
		logger:   logger.With("system", "quota"),
	}
}

// CanAssign reports whether owner may run on the cloud analyzer: true when
// owner already holds an assignment or a slot remains. An unknown owner is
// never assigned.
func (g *Governor) CanAssign(ctx context.Context, owner uuid.UUID) (bool, error) {
	pref, err := g.ledger.Preference(ctx, owner)
	switch {
	case errors.Is(err, accounts.ErrNotFound):
		g.logger.DebugContext(ctx, "cloud assignment refused for unknown owner", "owner_id", owner)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("read preference: %w", err)
	case pref == accounts.PreferenceCloud:
		return true, nil
	}

	current, err := g.ledger.CountCloud(ctx)
	if err != nil {
		return false, fmt.Errorf("count cloud holders: %w", err)
	}

	ok := current < g.capacity
	g.logger.DebugContext(ctx, "cloud assignment check", "owner_id", owner, "current", current, "max", g.capacity, "allowed", ok)
	return ok, nil
}

// Status reports current capacity usage.
func (g *Governor) Status(ctx context.Context) (Status, error) {
	current, err := g.ledger.CountCloud(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count cloud holders: %w", err)
	}

	return Status{
		Current:   current,
		Max:       g.capacity,
		Available: max(g.capacity-current, 0),
		IsFull:    current >= g.capacity,
	}, nil
}
