// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// BatchPublisher runs a full publish. GardenService satisfies it.
type BatchPublisher interface {
	PublishAll(ctx context.Context, opts PublishOptions) (model.PublishStatus, model.BatchReport, error)
}

// syncRequest represents a manual sync trigger.
type syncRequest struct {
	done chan syncResult
}

type syncResult struct {
	report model.BatchReport
	err    error
}

// SyncService keeps the remote in sync with the vault. It publishes on an
// interval, after vault changes and on manual triggers, one run at a time.
type SyncService struct {
	garden   BatchPublisher
	watcher  driven.Watcher
	interval time.Duration
	changeCh chan struct{}
	syncCh   chan syncRequest
}

// NewSyncService creates a SyncService. A zero interval disables periodic
// runs; a nil watcher disables change-driven runs.
func NewSyncService(garden BatchPublisher, watcher driven.Watcher, interval time.Duration) *SyncService {
	return &SyncService{
		garden:   garden,
		watcher:  watcher,
		interval: interval,
		changeCh: make(chan struct{}, 1),
		syncCh:   make(chan syncRequest),
	}
}

// Start runs an immediate sync, then serves ticks, change events and manual
// triggers until ctx is canceled.
func (s *SyncService) Start(ctx context.Context) {
	if s.watcher != nil {
		go func() {
			if err := s.watcher.Watch(ctx, s.notifyChange); err != nil && ctx.Err() == nil {
				slog.Error("vault watcher stopped", "error", err)
			}
		}()
	}

	if _, err := s.syncOnce(ctx, "startup"); err != nil {
		slog.Error("initial sync failed", "error", err)
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-tick:
			if _, err := s.syncOnce(ctx, "interval"); err != nil {
				slog.Error("sync cycle failed", "error", err)
			}
		case <-s.changeCh:
			if _, err := s.syncOnce(ctx, "vault change"); err != nil {
				slog.Error("sync cycle failed", "error", err)
			}
		case req := <-s.syncCh:
			report, err := s.syncOnce(ctx, "manual")
			req.done <- syncResult{report: report, err: err}
		}
	}
}

// Trigger requests an immediate sync and blocks until it completes or ctx is
// canceled.
func (s *SyncService) Trigger(ctx context.Context) (model.BatchReport, error) {
	req := syncRequest{done: make(chan syncResult, 1)}

	select {
	case s.syncCh <- req:
	case <-ctx.Done():
		return model.BatchReport{}, ctx.Err()
	}

	select {
	case res := <-req.done:
		return res.report, res.err
	case <-ctx.Done():
		return model.BatchReport{}, ctx.Err()
	}
}

// notifyChange coalesces change events while a sync is pending.
func (s *SyncService) notifyChange() {
	select {
	case s.changeCh <- struct{}{}:
	default:
	}
}

func (s *SyncService) syncOnce(ctx context.Context, reason string) (model.BatchReport, error) {
	start := time.Now()

	_, report, err := s.garden.PublishAll(ctx, PublishOptions{})
	if err != nil {
		return report, err
	}

	slog.Info("sync cycle complete",
		"reason", reason,
		"published", report.Published,
		"deleted", report.Deleted,
		"errors", report.PublishFailed+report.DeleteFailed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}
