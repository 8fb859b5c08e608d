package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/merchantloader/internal/infra/storage"
)

// Pruner deletes outcomes older than the retention period.
type Pruner struct {
	retention time.Duration
	repo      storage.OutcomeRepository
	now       func() time.Time
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker. A zero retention disables it.
func NewPruner(retention time.Duration, repo storage.OutcomeRepository) *Pruner {
	return &Pruner{
		retention: retention,
		repo:      repo,
		now:       time.Now,
		log:       slog.Default().With("component", "pruner"),
	}
}

// Start prunes once and then keeps pruning until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	// 10% of retention, clamped to [1m, 1h]
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_, _ = p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.Prune(ctx)
		}
	}
}

// Prune runs one retention pass and returns the number of outcomes removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}

	cutoff := p.now().Add(-p.retention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Error("Failed to prune outcomes", "cutoff", cutoff, "error", err)
		return 0, err
	}
	if deleted > 0 {
		p.log.Info("Pruned old outcomes", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
