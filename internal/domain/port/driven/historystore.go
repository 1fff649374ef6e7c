package driven

import (
	"context"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// PRHistoryStore defines the driven port for the append-only history of
// site template pull requests.
type PRHistoryStore interface {
	Append(ctx context.Context, url string) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.PullRequestRecord, error)
}

// RunStore persists batch run summaries.
type RunStore interface {
	Record(ctx context.Context, run model.RunRecord) (int64, error)
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]model.RunRecord, error)
}
