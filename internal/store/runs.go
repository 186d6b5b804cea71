package store

import (
	"context"
	"fmt"

	"github.com/rickgao/stockdb/internal/model"
)

// StartRun records the start of a renew step.
func (s *Store) StartRun(ctx context.Context, run model.SyncRun) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sync_runs (id, kind, started_at)
		VALUES ($1, $2, $3)
	`, run.ID, run.Kind, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a renew step.
func (s *Store) FinishRun(ctx context.Context, run model.SyncRun) error {
	_, err := s.db.Exec(ctx, `
		UPDATE sync_runs
		SET finished_at = $2, succeeded = $3, failed = $4, skipped = $5
		WHERE id = $1
	`, run.ID, run.FinishedAt, run.Succeeded, run.Failed, run.Skipped)
	if err != nil {
		return fmt.Errorf("update sync run %s: %w", run.ID, err)
	}
	return nil
}
