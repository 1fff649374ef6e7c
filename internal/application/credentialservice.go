package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// TokenRemote is a remote client that can verify the token it was built with.
type TokenRemote interface {
	driven.RemoteRepository
	ValidateToken(ctx context.Context, token string) (string, error)
}

// ConnectFunc builds a remote client authenticated with token.
type ConnectFunc func(token string) (TokenRemote, error)

// CredentialService validates, stores and activates GitHub tokens.
type CredentialService struct {
	store    driven.CredentialStore
	provider *RemoteProvider
	connect  ConnectFunc
}

// NewCredentialService creates a CredentialService. store may be nil, in
// which case tokens are activated for the process lifetime only.
func NewCredentialService(store driven.CredentialStore, provider *RemoteProvider, connect ConnectFunc) *CredentialService {
	return &CredentialService{store: store, provider: provider, connect: connect}
}

// SetGitHubToken validates token against GitHub, persists it encrypted and
// swaps the active remote client. It returns the authenticated login.
func (s *CredentialService) SetGitHubToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", &model.ConfigurationError{Field: "token", Message: "must not be empty"}
	}

	client, err := s.connect(token)
	if err != nil {
		return "", fmt.Errorf("building github client: %w", err)
	}

	login, err := client.ValidateToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("validating token: %w", err)
	}

	if s.store != nil {
		if err := s.store.Set(ctx, model.CredentialServiceGitHub, token); err != nil {
			return "", fmt.Errorf("storing token: %w", err)
		}
	}

	s.provider.Replace(client)
	slog.Info("github token updated", "login", login)
	return login, nil
}

// StoredGitHubToken returns the persisted token, or "" when none is stored or
// credential storage is unavailable.
func (s *CredentialService) StoredGitHubToken(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	token, err := s.store.Get(ctx, model.CredentialServiceGitHub)
	if err != nil {
		slog.Warn("reading stored github token failed", "error", err)
		return ""
	}
	return token
}
