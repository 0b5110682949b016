package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"
)

type Cleaner interface {
	Run(ctx context.Context, in usecase.CleanupInput) (usecase.CleanupResult, error)
}

// OrderReaper periodically expires pending orders older than ttl.
// It never deletes; deletion is left to the cleanup command.
type OrderReaper struct {
	cleaner  Cleaner
	ttl      time.Duration
	interval time.Duration
}

func NewOrderReaper(cleaner Cleaner, ttl, interval time.Duration) *OrderReaper {
	return &OrderReaper{cleaner: cleaner, ttl: ttl, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *OrderReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "order reaper started", "interval", w.interval, "ttl", w.ttl)

	for {
		select {
		case <-ctx.Done():
			slog.Info("order reaper stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *OrderReaper) tick(ctx context.Context) {
	res, err := w.cleaner.Run(ctx, usecase.CleanupInput{TTL: w.ttl})
	if err != nil {
		// next tick retries
		slog.ErrorContext(ctx, "order reaper run failed", "err", err)
		return
	}
	if res.Affected > 0 {
		slog.InfoContext(ctx, "order reaper expired orders", "count", res.Affected)
	}
}
