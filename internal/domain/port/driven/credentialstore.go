package driven

import (
	"context"
	"errors"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// GARDENPUBLISH_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set GARDENPUBLISH_SECRET_KEY")

// CredentialStore defines the driven port for encrypted credential persistence.
// The adapter encrypts and decrypts; this interface carries plaintext.
type CredentialStore interface {
	// Set stores or replaces the credential for service.
	Set(ctx context.Context, service, plaintext string) error

	// Get returns ("", nil) when nothing is stored for service.
	Get(ctx context.Context, service string) (string, error)

	List(ctx context.Context) ([]model.Credential, error)

	Delete(ctx context.Context, service string) error
}
