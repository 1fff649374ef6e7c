package application

import (
	"context"
	"errors"
	"sync"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// ErrRemoteNotConfigured is returned while no remote client is available.
var ErrRemoteNotConfigured = errors.New("remote repository not configured: set GARDENPUBLISH_GITHUB_TOKEN or store a token")

// Compile-time interface satisfaction check.
var _ driven.RemoteRepository = (*RemoteProvider)(nil)

// RemoteProvider enables runtime hot-swap of the remote repository client.
// It implements driven.RemoteRepository by delegating to the current client,
// so credential updates take effect without rebuilding the engine.
type RemoteProvider struct {
	mu     sync.RWMutex
	remote driven.RemoteRepository
}

// NewRemoteProvider creates a provider. remote may be nil if no credentials
// are available at startup.
func NewRemoteProvider(remote driven.RemoteRepository) *RemoteProvider {
	return &RemoteProvider{remote: remote}
}

// Get returns the current client, or nil.
func (p *RemoteProvider) Get() driven.RemoteRepository {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.remote
}

// Replace swaps the current client. The next call uses the new one.
func (p *RemoteProvider) Replace(remote driven.RemoteRepository) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remote = remote
}

// HasRemote returns true if a non-nil client is currently held.
func (p *RemoteProvider) HasRemote() bool {
	return p.Get() != nil
}

func (p *RemoteProvider) current() (driven.RemoteRepository, error) {
	r := p.Get()
	if r == nil {
		return nil, ErrRemoteNotConfigured
	}
	return r, nil
}

func (p *RemoteProvider) Read(ctx context.Context, path string) (model.RemoteFile, error) {
	r, err := p.current()
	if err != nil {
		return model.RemoteFile{}, err
	}
	return r.Read(ctx, path)
}

func (p *RemoteProvider) Write(ctx context.Context, path string, content []byte, knownSignature string) (string, error) {
	r, err := p.current()
	if err != nil {
		return "", err
	}
	return r.Write(ctx, path, content, knownSignature)
}

func (p *RemoteProvider) Delete(ctx context.Context, path string) error {
	r, err := p.current()
	if err != nil {
		return err
	}
	return r.Delete(ctx, path)
}

func (p *RemoteProvider) Manifest(ctx context.Context, scope func(string) bool) (model.Manifest, error) {
	r, err := p.current()
	if err != nil {
		return nil, err
	}
	return r.Manifest(ctx, scope)
}

func (p *RemoteProvider) CreateChangeProposal(ctx context.Context, proposal model.ChangeProposal) (string, error) {
	r, err := p.current()
	if err != nil {
		return "", err
	}
	return r.CreateChangeProposal(ctx, proposal)
}
