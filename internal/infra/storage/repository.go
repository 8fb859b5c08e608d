package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/merchantloader/internal/core/domain"
)

var (
	// ErrRunNotFound is returned when no outcome was recorded for a run
	ErrRunNotFound = errors.New("run not found")
)

// OutcomeRepository stores per-record submission outcomes.
type OutcomeRepository interface {
	// Save stores one terminal outcome
	Save(ctx context.Context, outcome *domain.Outcome) error

	// ListByRun returns a run's outcomes in the order they finished
	ListByRun(ctx context.Context, runID string) ([]domain.Outcome, error)

	// Runs returns the most recent runs first
	Runs(ctx context.Context, limit int) ([]RunSummary, error)

	// Succeeded returns the record IDs already registered successfully in any run
	Succeeded(ctx context.Context) (map[string]bool, error)

	// DeleteOlderThan removes outcomes that finished before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunSummary aggregates the outcomes of one upload run.
type RunSummary struct {
	RunID      string    `db:"run_id"`
	Total      int       `db:"total"`
	Succeeded  int       `db:"succeeded"`
	Failed     int       `db:"failed"`
	Reverted   int       `db:"reverted"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}
