package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// BatchRunner drives a batch of publishes and deletes. Every item yields an
// ItemResult; a failing item never stops its siblings. All publishes are
// attempted before the first delete.
type BatchRunner struct {
	publisher   *Publisher
	concurrency int
	now         func() time.Time
}

// NewBatchRunner creates a BatchRunner. A concurrency below 2 runs items
// sequentially.
func NewBatchRunner(publisher *Publisher, concurrency int) *BatchRunner {
	return &BatchRunner{
		publisher:   publisher,
		concurrency: concurrency,
		now:         time.Now,
	}
}

type batchItem struct {
	index int
	kind  model.ItemKind
	note  model.Note
	path  string
}

// Run publishes notes, then deletes deletePaths, reporting each item to
// progress. Cancelling ctx makes remaining items fail with the context
// error; they are still reported.
func (b *BatchRunner) Run(ctx context.Context, notes []model.Note, deletePaths []string, progress ProgressReporter) model.BatchReport {
	if progress == nil {
		progress = LogProgress{}
	}

	publishes := make([]batchItem, 0, len(notes))
	for i, n := range notes {
		publishes = append(publishes, batchItem{index: i, kind: model.ItemPublish, note: n, path: n.Path})
	}
	deletes := make([]batchItem, 0, len(deletePaths))
	for i, p := range deletePaths {
		deletes = append(deletes, batchItem{index: len(notes) + i, kind: model.ItemDelete, path: p})
	}

	total := len(publishes) + len(deletes)
	results := make([]model.ItemResult, total)
	report := model.BatchReport{StartedAt: b.now()}
	progress.Start(total)

	var (
		mu   sync.Mutex
		done int
	)
	record := func(res model.ItemResult) {
		mu.Lock()
		defer mu.Unlock()
		results[res.Index] = res
		done++
		progress.Advance(done, total, res)
	}

	b.runPhase(ctx, publishes, record)
	b.runPhase(ctx, deletes, record)

	for _, res := range results {
		report.Add(res)
	}
	report.FinishedAt = b.now()
	progress.Finish(report)

	return report
}

func (b *BatchRunner) runPhase(ctx context.Context, items []batchItem, record func(model.ItemResult)) {
	if b.concurrency < 2 {
		for _, item := range items {
			record(b.runItem(ctx, item))
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for _, item := range items {
		g.Go(func() error {
			record(b.runItem(ctx, item))
			return nil
		})
	}
	_ = g.Wait()
}

func (b *BatchRunner) runItem(ctx context.Context, item batchItem) model.ItemResult {
	res := model.ItemResult{Index: item.index, Kind: item.kind, Path: item.path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	switch item.kind {
	case model.ItemPublish:
		_, res.Err = b.publisher.Publish(ctx, item.note)
	case model.ItemDelete:
		_, res.Err = b.publisher.Delete(ctx, item.path)
	}

	if res.Err != nil {
		slog.Error("batch item failed", "kind", item.kind, "path", item.path, "error", res.Err)
	}
	return res
}
