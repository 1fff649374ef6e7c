package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// PublishOptions controls a full batch publish.
type PublishOptions struct {
	// AllowBulkDelete permits deleting every published note when the vault
	// has no candidates left.
	AllowBulkDelete bool
	// DryRun computes the plan without mutating the remote.
	DryRun   bool
	Progress ProgressReporter
}

// GardenService is the entry point used by the CLI and the HTTP API.
type GardenService struct {
	notes       driven.NoteSource
	transformer driven.Transformer
	reconciler  *Reconciler
	publisher   *Publisher
	batch       *BatchRunner
	updater     *SiteUpdater
	mapper      *PathMapper
	history     driven.PRHistoryStore
	runs        driven.RunStore
}

// NewGardenService wires the engine components together.
func NewGardenService(
	notes driven.NoteSource,
	transformer driven.Transformer,
	reconciler *Reconciler,
	publisher *Publisher,
	batch *BatchRunner,
	updater *SiteUpdater,
	mapper *PathMapper,
	history driven.PRHistoryStore,
	runs driven.RunStore,
) *GardenService {
	return &GardenService{
		notes:       notes,
		transformer: transformer,
		reconciler:  reconciler,
		publisher:   publisher,
		batch:       batch,
		updater:     updater,
		mapper:      mapper,
		history:     history,
		runs:        runs,
	}
}

// GetPublishStatus reconciles the vault against the remote.
func (s *GardenService) GetPublishStatus(ctx context.Context) (model.PublishStatus, error) {
	return s.reconciler.GetPublishStatus(ctx)
}

// PublishNote publishes a single note by vault path.
func (s *GardenService) PublishNote(ctx context.Context, path string) error {
	note, err := s.eligibleNote(ctx, path)
	if err != nil {
		return err
	}
	_, err = s.publisher.Publish(ctx, note)
	return err
}

// DeleteNote removes a single published note by remote path.
func (s *GardenService) DeleteNote(ctx context.Context, remotePath string) error {
	_, err := s.publisher.Delete(ctx, remotePath)
	return err
}

// PublishAll publishes every changed and unpublished note, then deletes
// orphaned remote notes. The returned status is the plan the batch ran.
func (s *GardenService) PublishAll(ctx context.Context, opts PublishOptions) (model.PublishStatus, model.BatchReport, error) {
	status, err := s.reconciler.GetPublishStatus(ctx)
	if err != nil {
		return model.PublishStatus{}, model.BatchReport{}, err
	}

	candidates := len(status.UnpublishedNotes) + len(status.ChangedNotes) + len(status.PublishedNotes)
	if candidates == 0 && len(status.DeletedNotePaths) > 0 && !opts.AllowBulkDelete {
		return status, model.BatchReport{}, fmt.Errorf("%d remote notes: %w", len(status.DeletedNotePaths), model.ErrBulkDeleteNotConfirmed)
	}

	if opts.DryRun || status.InSync() {
		return status, model.BatchReport{}, nil
	}

	report := s.batch.Run(ctx, status.ToPublish(), status.DeletedNotePaths, opts.Progress)

	if s.runs != nil {
		if _, err := s.runs.Record(ctx, model.RunRecordFromReport(report)); err != nil {
			slog.Error("recording run failed", "error", err)
		}
	}

	return status, report, nil
}

// CreatePullRequestWithSiteChanges delegates to the site updater.
func (s *GardenService) CreatePullRequestWithSiteChanges(ctx context.Context) (string, error) {
	return s.updater.CreatePullRequestWithSiteChanges(ctx)
}

// NoteURL returns the public URL of a note by vault path.
func (s *GardenService) NoteURL(ctx context.Context, path string) (string, error) {
	note, err := s.notes.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", path, err)
	}
	return s.mapper.NoteURL(note), nil
}

// PreviewNote returns the transformed content that would be published.
func (s *GardenService) PreviewNote(ctx context.Context, path string) ([]byte, error) {
	note, err := s.eligibleNote(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.transformer.Transform(ctx, note)
}

// MarkPublish sets the publish flag on a note.
func (s *GardenService) MarkPublish(ctx context.Context, path string) error {
	return s.notes.MarkPublish(ctx, path)
}

// PullRequestHistory returns up to limit template pull requests, newest first.
// A non-positive limit uses the display default.
func (s *GardenService) PullRequestHistory(ctx context.Context, limit int) ([]model.PullRequestRecord, error) {
	if limit <= 0 {
		limit = model.PullRequestHistoryDisplayLimit
	}
	return s.history.Recent(ctx, limit)
}

// RecentRuns returns up to limit batch runs, newest first.
func (s *GardenService) RecentRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if s.runs == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.runs.Recent(ctx, limit)
}

func (s *GardenService) eligibleNote(ctx context.Context, path string) (model.Note, error) {
	note, err := s.notes.Get(ctx, path)
	if err != nil {
		return model.Note{}, fmt.Errorf("loading %s: %w", path, err)
	}
	if !note.IsMarkdown() || !note.Publish {
		return model.Note{}, fmt.Errorf("%s: %w", path, model.ErrNotEligible)
	}
	return note, nil
}
