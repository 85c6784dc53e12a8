package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/repository"
)

// quotaLockKey serializes cloud assignments across server instances.
const quotaLockKey int64 = 0x7761_7264_656e

const columns = "id, preference, created_at, updated_at"

type repo struct {
	db       *sql.DB
	capacity int
	logger   *slog.Logger
}

// New creates an account repository. capacity bounds the number of owners
// that may hold a cloud preference.
func New(db *sql.DB, capacity int, logger *slog.Logger) System {
	return &repo{
		db:       db,
		capacity: capacity,
		logger:   logger.With("system", "accounts"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := repository.QueryOne(ctx, r.db,
		"SELECT "+columns+" FROM accounts WHERE id = $1",
		[]any{id}, scanAccount,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Preference(ctx context.Context, id uuid.UUID) (Preference, error) {
	var p Preference
	err := r.db.QueryRowContext(ctx, "SELECT preference FROM accounts WHERE id = $1", id).Scan(&p)
	if err != nil {
		return "", repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return p, nil
}

func (r *repo) CountCloud(ctx context.Context) (int, error) {
	return countCloud(ctx, r.db)
}

func (r *repo) SetPreference(ctx context.Context, id uuid.UUID, p Preference) (*Account, error) {
	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Account, error) {
		if p == PreferenceCloud {
			if err := r.reserveCloud(ctx, tx, id); err != nil {
				return Account{}, err
			}
		}

		return repository.QueryOne(ctx, tx, `
			INSERT INTO accounts(id, preference)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE
			SET preference = EXCLUDED.preference, updated_at = NOW()
			RETURNING `+columns,
			[]any{id, p}, scanAccount,
		)
	})
	if err != nil {
		if errors.Is(err, ErrQuotaFull) {
			r.logger.Warn("cloud assignment refused", "account_id", id, "capacity", r.capacity)
			return nil, err
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("analyzer preference updated", "account_id", id, "preference", a.Preference)
	return &a, nil
}

// reserveCloud checks capacity under the advisory lock. Owners already on
// cloud keep their slot.
func (r *repo) reserveCloud(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	if err := repository.AdvisoryLock(ctx, tx, quotaLockKey); err != nil {
		return fmt.Errorf("acquire quota lock: %w", err)
	}

	var current Preference
	err := tx.QueryRowContext(ctx, "SELECT preference FROM accounts WHERE id = $1", id).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if current == PreferenceCloud {
		return nil
	}

	count, err := countCloud(ctx, tx)
	if err != nil {
		return err
	}
	if count >= r.capacity {
		return fmt.Errorf("%w: %d of %d", ErrQuotaFull, count, r.capacity)
	}
	return nil
}

func countCloud(ctx context.Context, q repository.DB) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE preference = 'cloud'").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cloud accounts: %w", err)
	}
	return n, nil
}

func scanAccount(s repository.Scanner) (Account, error) {
	var a Account
	err := s.Scan(&a.ID, &a.Preference, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
