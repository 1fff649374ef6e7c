package application

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Reconciler classifies the local candidate set against the remote manifest.
type Reconciler struct {
	notes       driven.NoteSource
	remote      driven.RemoteRepository
	transformer driven.Transformer
	mapper      *PathMapper
}

// NewReconciler creates a Reconciler with all required dependencies.
func NewReconciler(
	notes driven.NoteSource,
	remote driven.RemoteRepository,
	transformer driven.Transformer,
	mapper *PathMapper,
) *Reconciler {
	return &Reconciler{
		notes:       notes,
		remote:      remote,
		transformer: transformer,
		mapper:      mapper,
	}
}

// GetPublishStatus scans the vault, fetches the scoped manifest in a single
// call and reconciles the two.
func (r *Reconciler) GetPublishStatus(ctx context.Context) (model.PublishStatus, error) {
	candidates, err := r.notes.ListCandidates(ctx)
	if err != nil {
		return model.PublishStatus{}, fmt.Errorf("listing candidates: %w", err)
	}

	manifest, err := r.remote.Manifest(ctx, r.mapper.InScope)
	if err != nil {
		return model.PublishStatus{}, fmt.Errorf("fetching manifest: %w", err)
	}

	return r.Reconcile(ctx, candidates, manifest)
}

// Reconcile partitions candidates and the scoped manifest into unpublished,
// changed, published and deleted sets. Notes without the publish flag are
// ignored. Two local notes mapping to the same remote path abort the pass
// with a *model.ReconciliationError.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []model.Note, manifest model.Manifest) (model.PublishStatus, error) {
	byRemote := make(map[string]model.Note, len(candidates))
	for _, note := range candidates {
		if !note.Publish || !note.IsMarkdown() {
			continue
		}
		remotePath := r.mapper.RemotePath(note.Path)
		if prev, ok := byRemote[remotePath]; ok {
			if prev.Path == note.Path {
				continue
			}
			locals := []string{prev.Path, note.Path}
			slices.Sort(locals)
			return model.PublishStatus{}, &model.ReconciliationError{
				RemotePath: remotePath,
				LocalPaths: locals,
				Reason:     "duplicate remote path",
			}
		}
		byRemote[remotePath] = note
	}

	var status model.PublishStatus
	visited := make(map[string]bool, len(byRemote))

	for remotePath, note := range byRemote {
		content, err := r.transformer.Transform(ctx, note)
		if err != nil {
			return model.PublishStatus{}, fmt.Errorf("transforming %s: %w", note.Path, err)
		}

		remoteSig, exists := manifest[remotePath]
		if exists && r.mapper.InScope(remotePath) {
			visited[remotePath] = true
		}

		switch {
		case !exists:
			status.UnpublishedNotes = append(status.UnpublishedNotes, note)
		case remoteSig != Signature(content):
			status.ChangedNotes = append(status.ChangedNotes, note)
		default:
			status.PublishedNotes = append(status.PublishedNotes, note)
		}
	}

	for remotePath := range manifest {
		if visited[remotePath] || !r.mapper.InScope(remotePath) {
			continue
		}
		status.DeletedNotePaths = append(status.DeletedNotePaths, remotePath)
	}

	sortNotes(status.UnpublishedNotes)
	sortNotes(status.ChangedNotes)
	sortNotes(status.PublishedNotes)
	slices.Sort(status.DeletedNotePaths)

	slog.Debug("reconciliation complete",
		"unpublished", len(status.UnpublishedNotes),
		"changed", len(status.ChangedNotes),
		"published", len(status.PublishedNotes),
		"deleted", len(status.DeletedNotePaths),
	)

	return status, nil
}

func sortNotes(notes []model.Note) {
	slices.SortFunc(notes, func(a, b model.Note) int {
		return cmp.Compare(a.Path, b.Path)
	})
}
