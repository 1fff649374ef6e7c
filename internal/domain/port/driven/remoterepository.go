package driven

import (
	"context"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// RemoteRepository defines the driven port for the remote site repository.
// Every operation is idempotent with respect to (path, content).
type RemoteRepository interface {
	// Read returns the blob stored at path. Returns an error wrapping
	// model.ErrNotFound when nothing exists there.
	Read(ctx context.Context, path string) (model.RemoteFile, error)

	// Write creates or updates the blob at path and returns its new signature.
	// An empty knownSignature makes the client read the current state first.
	// A non-empty knownSignature that no longer matches the remote yields
	// model.ErrConflict.
	Write(ctx context.Context, path string, content []byte, knownSignature string) (string, error)

	// Delete removes the blob at path. Returns an error wrapping
	// model.ErrNotFound when it is already absent.
	Delete(ctx context.Context, path string) error

	// Manifest lists every blob on the target branch accepted by scope, in a
	// single round trip.
	Manifest(ctx context.Context, scope func(path string) bool) (model.Manifest, error)

	// CreateChangeProposal opens a pull request with the given changes and
	// returns its URL. Returns "" and a nil error when there are no changes.
	CreateChangeProposal(ctx context.Context, proposal model.ChangeProposal) (string, error)
}
