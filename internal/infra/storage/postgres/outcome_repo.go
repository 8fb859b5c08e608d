package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/storage"
)

// OutcomeRepo implements storage.OutcomeRepository using PostgreSQL.
type OutcomeRepo struct {
	db *DB
}

var _ storage.OutcomeRepository = (*OutcomeRepo)(nil)

// NewOutcomeRepo creates a new PostgreSQL outcome repository.
func NewOutcomeRepo(db *DB) *OutcomeRepo {
	return &OutcomeRepo{db: db}
}

// Save inserts one outcome.
func (r *OutcomeRepo) Save(ctx context.Context, outcome *domain.Outcome) error {
	query := `
		INSERT INTO outcomes (
			run_id, record_id, name, success, tx_hash, error_msg,
			attempts, nonce, gas_price, reverted, block_number, finished_at
		) VALUES (
			:run_id, :record_id, :name, :success, :tx_hash, :error_msg,
			:attempts, :nonce, :gas_price, :reverted, :block_number, :finished_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, outcome); err != nil {
		return fmt.Errorf("failed to save outcome %s: %w", outcome.RecordID, err)
	}
	return nil
}

// ListByRun returns a run's outcomes in insertion order.
func (r *OutcomeRepo) ListByRun(ctx context.Context, runID string) ([]domain.Outcome, error) {
	query := `
		SELECT run_id, record_id, name, success, tx_hash, error_msg,
		       attempts, nonce, gas_price, reverted, block_number, finished_at
		FROM outcomes
		WHERE run_id = $1
		ORDER BY id ASC
	`
	var outcomes []domain.Outcome
	if err := r.db.SelectContext(ctx, &outcomes, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		return nil, storage.ErrRunNotFound
	}
	return outcomes, nil
}

// Runs returns per-run aggregates, most recent first.
func (r *OutcomeRepo) Runs(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT run_id,
		       COUNT(*)                                AS total,
		       COUNT(*) FILTER (WHERE success)         AS succeeded,
		       COUNT(*) FILTER (WHERE NOT success)     AS failed,
		       COUNT(*) FILTER (WHERE reverted)        AS reverted,
		       MIN(finished_at)                        AS started_at,
		       MAX(finished_at)                        AS finished_at
		FROM outcomes
		GROUP BY run_id
		ORDER BY MAX(finished_at) DESC
		LIMIT $1
	`
	var runs []storage.RunSummary
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Succeeded returns the record IDs registered without revert in any run.
func (r *OutcomeRepo) Succeeded(ctx context.Context) (map[string]bool, error) {
	var ids []string
	query := `SELECT DISTINCT record_id FROM outcomes WHERE success AND NOT reverted`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list succeeded records: %w", err)
	}
	done := make(map[string]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

// DeleteOlderThan removes outcomes that finished before the cutoff.
func (r *OutcomeRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outcomes WHERE finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete outcomes: %w", err)
	}
	return res.RowsAffected()
}
