package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"
)

type CleanupAction string

const (
	CleanupNothing CleanupAction = "nothing"
	CleanupExpired CleanupAction = "expired"
	CleanupDeleted CleanupAction = "deleted"
)

// CleanupUsecase expires (or deletes) pending orders nobody paid for.
type CleanupUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewCleanupUsecase(tx repo.TransactionManager, clock Clock) *CleanupUsecase {
	return &CleanupUsecase{tx: tx, clock: clock}
}

// CleanupInput.DeleteAfter only matters with Delete set.
type CleanupInput struct {
	TTL         time.Duration
	Delete      bool
	DeleteAfter *time.Duration
}

type CleanupResult struct {
	Matched  int64
	Affected int64
	Action   CleanupAction
	Message  string
}

func (u *CleanupUsecase) Run(ctx context.Context, in CleanupInput) (CleanupResult, error) {
	if in.TTL < 0 {
		return CleanupResult{}, validationError("ttl must not be negative")
	}
	if in.DeleteAfter != nil && *in.DeleteAfter < 0 {
		return CleanupResult{}, validationError("delete-after-days must not be negative")
	}

	now := u.clock.Now()
	cutoff := now.Add(-in.TTL)

	var res CleanupResult
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		count, err := r.Orders().CountPendingCreatedBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		res.Matched = count
		if count == 0 {
			res.Action = CleanupNothing
			res.Message = "No stale pending orders."
			return nil
		}

		if !in.Delete {
			n, err := r.Orders().ExpirePendingCreatedBefore(ctx, cutoff, now)
			if err != nil {
				return err
			}
			res.Action = CleanupExpired
			res.Affected = n
			res.Message = fmt.Sprintf("Marked %d pending orders older than %s as expired.", n, in.TTL)
			return nil
		}

		deleteCutoff := cutoff
		suffix := fmt.Sprintf("older than %s", in.TTL)
		if in.DeleteAfter != nil {
			// the stricter of the two cutoffs wins
			if c := now.Add(-*in.DeleteAfter); c.Before(deleteCutoff) {
				deleteCutoff = c
			}
			suffix = fmt.Sprintf("older than %d days", int(in.DeleteAfter.Hours()/24))
		}
		n, err := r.Orders().DeletePendingCreatedBefore(ctx, deleteCutoff)
		if err != nil {
			return err
		}
		res.Action = CleanupDeleted
		res.Affected = n
		res.Message = fmt.Sprintf("Deleted %d pending orders %s.", n, suffix)
		return nil
	})
	if err != nil {
		return CleanupResult{}, internalError(err)
	}

	slog.InfoContext(ctx, "stale order cleanup",
		"action", res.Action, "matched", res.Matched, "affected", res.Affected, "cutoff", cutoff)

	return res, nil
}
