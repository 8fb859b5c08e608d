package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/storage/memory"
)

func TestPruner_Prune(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutcomeRepo(memory.NewMemoryStorage())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.Save(ctx, &domain.Outcome{RunID: "r1", RecordID: "A1", FinishedAt: now.Add(-48 * time.Hour)})
	_ = repo.Save(ctx, &domain.Outcome{RunID: "r2", RecordID: "A2", FinishedAt: now.Add(-time.Hour)})

	p := NewPruner(24*time.Hour, repo)
	p.now = func() time.Time { return now }

	deleted, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := repo.ListByRun(ctx, "r2"); err != nil {
		t.Errorf("recent run should survive: %v", err)
	}
}

func TestPruner_Disabled(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutcomeRepo(memory.NewMemoryStorage())
	_ = repo.Save(ctx, &domain.Outcome{RunID: "r1", RecordID: "A1"})

	p := NewPruner(0, repo)
	if deleted, err := p.Prune(ctx); err != nil || deleted != 0 {
		t.Errorf("disabled pruner deleted %d (%v)", deleted, err)
	}
	// Start returns immediately when disabled.
	p.Start(ctx)
}
