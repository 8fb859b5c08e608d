package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/storage"
)

// MemoryStorage keeps outcomes in process. Used when no database is
// configured and in tests.
type MemoryStorage struct {
	outcomes map[string][]domain.Outcome
	order    []string
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		outcomes: make(map[string][]domain.Outcome),
	}
}

// -----------------------------------------------------------------------------
// Outcome Repository
// -----------------------------------------------------------------------------

type OutcomeRepo struct {
	store *MemoryStorage
}

var _ storage.OutcomeRepository = (*OutcomeRepo)(nil)

func NewOutcomeRepo(store *MemoryStorage) *OutcomeRepo {
	return &OutcomeRepo{store: store}
}

func (r *OutcomeRepo) Save(ctx context.Context, outcome *domain.Outcome) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.outcomes[outcome.RunID]; !ok {
		r.store.order = append(r.store.order, outcome.RunID)
	}
	r.store.outcomes[outcome.RunID] = append(r.store.outcomes[outcome.RunID], *outcome)
	return nil
}

func (r *OutcomeRepo) ListByRun(ctx context.Context, runID string) ([]domain.Outcome, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	outcomes, ok := r.store.outcomes[runID]
	if !ok {
		return nil, storage.ErrRunNotFound
	}
	return append([]domain.Outcome(nil), outcomes...), nil
}

func (r *OutcomeRepo) Runs(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	runs := make([]storage.RunSummary, 0, len(r.store.order))
	for _, runID := range r.store.order {
		runs = append(runs, summarize(runID, r.store.outcomes[runID]))
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].FinishedAt.After(runs[j].FinishedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *OutcomeRepo) Succeeded(ctx context.Context) (map[string]bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	done := make(map[string]bool)
	for _, outcomes := range r.store.outcomes {
		for _, o := range outcomes {
			if o.Success && !o.Reverted {
				done[o.RecordID] = true
			}
		}
	}
	return done, nil
}

func (r *OutcomeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	order := r.store.order[:0]
	for _, runID := range r.store.order {
		kept := r.store.outcomes[runID][:0]
		for _, o := range r.store.outcomes[runID] {
			if o.FinishedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, o)
		}
		if len(kept) == 0 {
			delete(r.store.outcomes, runID)
			continue
		}
		r.store.outcomes[runID] = kept
		order = append(order, runID)
	}
	r.store.order = order
	return deleted, nil
}

func summarize(runID string, outcomes []domain.Outcome) storage.RunSummary {
	s := storage.RunSummary{RunID: runID, Total: len(outcomes)}
	for i, o := range outcomes {
		if o.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		if o.Reverted {
			s.Reverted++
		}
		if i == 0 || o.FinishedAt.Before(s.StartedAt) {
			s.StartedAt = o.FinishedAt
		}
		if o.FinishedAt.After(s.FinishedAt) {
			s.FinishedAt = o.FinishedAt
		}
	}
	return s
}
