package application

import (
	"log/slog"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// ProgressReporter observes a batch run. It is a pure sink: nothing it does
// influences the batch. Advance is never called concurrently and done grows
// by exactly one per call.
type ProgressReporter interface {
	Start(total int)
	Advance(done, total int, result model.ItemResult)
	Finish(report model.BatchReport)
}

// LogProgress reports batch progress through slog.
type LogProgress struct{}

func (LogProgress) Start(total int) {
	slog.Info("batch started", "items", total)
}

func (LogProgress) Advance(done, total int, result model.ItemResult) {
	slog.Debug("batch progress",
		"done", done, "total", total,
		"kind", result.Kind, "path", result.Path, "ok", result.OK())
}

func (LogProgress) Finish(report model.BatchReport) {
	slog.Info("batch complete",
		"published", report.Published,
		"publish_failed", report.PublishFailed,
		"deleted", report.Deleted,
		"delete_failed", report.DeleteFailed,
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Start(int)                         {}
func (NopProgress) Advance(int, int, model.ItemResult) {}
func (NopProgress) Finish(model.BatchReport)           {}
