package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Publisher applies single local-to-remote mutations. Each call is an
// isolated unit of work; batching lives in BatchRunner.
type Publisher struct {
	remote      driven.RemoteRepository
	transformer driven.Transformer
	mapper      *PathMapper
}

// NewPublisher creates a Publisher.
func NewPublisher(remote driven.RemoteRepository, transformer driven.Transformer, mapper *PathMapper) *Publisher {
	return &Publisher{
		remote:      remote,
		transformer: transformer,
		mapper:      mapper,
	}
}

// Publish transforms note and writes it to its remote path. Writing content
// whose signature already matches the remote is a no-op in the client.
func (p *Publisher) Publish(ctx context.Context, note model.Note) (bool, error) {
	if !note.IsMarkdown() {
		return false, fmt.Errorf("publishing %s: %w", note.Path, model.ErrNotEligible)
	}

	content, err := p.transformer.Transform(ctx, note)
	if err != nil {
		return false, fmt.Errorf("transforming %s: %w", note.Path, err)
	}

	remotePath := p.mapper.RemotePath(note.Path)
	sig, err := p.remote.Write(ctx, remotePath, content, "")
	if err != nil {
		return false, fmt.Errorf("publishing %s: %w", note.Path, err)
	}

	slog.Debug("note published", "path", note.Path, "remote_path", remotePath, "sha", sig)
	return true, nil
}

// Delete removes a published note. A note that is already absent counts as
// deleted. Paths outside the notes directory are refused.
func (p *Publisher) Delete(ctx context.Context, remotePath string) (bool, error) {
	if !p.mapper.InScope(remotePath) {
		return false, fmt.Errorf("deleting %s: %w", remotePath, model.ErrOutOfScope)
	}

	if err := p.remote.Delete(ctx, remotePath); err != nil {
		if model.IsNotFound(err) {
			slog.Debug("note already deleted", "remote_path", remotePath)
			return true, nil
		}
		return false, fmt.Errorf("deleting %s: %w", remotePath, err)
	}

	slog.Debug("note deleted", "remote_path", remotePath)
	return true, nil
}
