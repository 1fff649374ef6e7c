package sqlite

import (
	"context"
	"fmt"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo persists batch run summaries.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a RunRepo backed by db.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Record stores run and returns its id.
func (r *RunRepo) Record(ctx context.Context, run model.RunRecord) (int64, error) {
	const query = `INSERT INTO publish_runs
		(published, publish_failed, deleted, delete_failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.Writer.ExecContext(ctx, query,
		run.Published, run.PublishFailed, run.Deleted, run.DeleteFailed,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]model.RunRecord, error) {
	const query = `SELECT id, published, publish_failed, deleted, delete_failed, started_at, finished_at
		FROM publish_runs ORDER BY id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []model.RunRecord{}
	for rows.Next() {
		var (
			run                 model.RunRecord
			startedAt, finished string
		)
		if err := rows.Scan(&run.ID, &run.Published, &run.PublishFailed, &run.Deleted, &run.DeleteFailed, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at for run %d: %w", run.ID, err)
		}
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("parse finished_at for run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
