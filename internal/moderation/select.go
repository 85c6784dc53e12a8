package moderation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/accounts"
	"github.com/JaimeStill/warden/internal/analysis"
)

// SelectBackend resolves the backend for owner's job. Cloud requires both a
// quota slot and a registered cloud analyzer; every failure resolves to local.
func SelectBackend(ctx context.Context, rt *Runtime, owner uuid.UUID, logger *slog.Logger) analysis.Backend {
	pref, err := rt.Accounts.Preference(ctx, owner)
	if err != nil {
		if !errors.Is(err, accounts.ErrNotFound) {
			logger.WarnContext(ctx, "preference lookup failed, using local", "error", err)
		}
		return analysis.BackendLocal
	}

	switch pref {
	case accounts.PreferenceCloud:
		if !rt.Analyzers.Has(analysis.BackendCloud) {
			logger.InfoContext(ctx, "cloud analyzer not configured, using local")
			return analysis.BackendLocal
		}
		ok, err := rt.Quota.CanAssign(ctx, owner)
		if err != nil {
			logger.WarnContext(ctx, "quota check failed, using local", "error", err)
			return analysis.BackendLocal
		}
		if !ok {
			logger.InfoContext(ctx, "cloud quota full, using local")
			return analysis.BackendLocal
		}
		return analysis.BackendCloud
	case accounts.PreferenceHybrid:
		return analysis.BackendHybrid
	default:
		return analysis.BackendLocal
	}
}
