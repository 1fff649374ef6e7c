package driven

import (
	"context"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// NoteSource defines the driven port for the local note collection.
type NoteSource interface {
	// ListCandidates returns every markdown note whose publish flag is set,
	// with effective settings already merged.
	ListCandidates(ctx context.Context) ([]model.Note, error)

	// Get loads a single note by vault-relative path regardless of its
	// publish flag.
	Get(ctx context.Context, path string) (model.Note, error)

	// ReadBinary returns the raw bytes of any vault file.
	ReadBinary(ctx context.Context, path string) ([]byte, error)

	// MarkPublish sets the publish flag in the note's frontmatter.
	MarkPublish(ctx context.Context, path string) error
}

// Transformer converts a note into the form stored remotely.
type Transformer interface {
	Transform(ctx context.Context, note model.Note) ([]byte, error)
}

// Watcher emits a signal whenever the note collection changes.
type Watcher interface {
	// Watch blocks until ctx is cancelled, calling onChange after each
	// debounced burst of file events.
	Watch(ctx context.Context, onChange func()) error
}
