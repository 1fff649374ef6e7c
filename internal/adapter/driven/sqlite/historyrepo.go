package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PRHistoryStore = (*PRHistoryRepo)(nil)

// PRHistoryRepo is the append-only log of site template pull requests.
type PRHistoryRepo struct {
	db  *DB
	now func() time.Time
}

// NewPRHistoryRepo creates a PRHistoryRepo backed by db.
func NewPRHistoryRepo(db *DB) *PRHistoryRepo {
	return &PRHistoryRepo{db: db, now: time.Now}
}

// Append records a new pull request URL.
func (r *PRHistoryRepo) Append(ctx context.Context, url string) error {
	const query = `INSERT INTO pr_history (url, created_at) VALUES (?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, url, formatTime(r.now())); err != nil {
		return fmt.Errorf("append pr history %q: %w", url, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *PRHistoryRepo) Recent(ctx context.Context, limit int) ([]model.PullRequestRecord, error) {
	const query = `SELECT id, url, created_at FROM pr_history ORDER BY id DESC LIMIT ?`
	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pr history: %w", err)
	}
	defer rows.Close()

	records := []model.PullRequestRecord{}
	for rows.Next() {
		var (
			rec       model.PullRequestRecord
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pr history: %w", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for pr history %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pr history: %w", err)
	}

	return records, nil
}
