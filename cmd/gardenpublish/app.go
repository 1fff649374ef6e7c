package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	githubadapter "github.com/vanadium23/obsidian-digital-garden/internal/adapter/driven/github"
	"github.com/vanadium23/obsidian-digital-garden/internal/adapter/driven/compiler"
	sqliteadapter "github.com/vanadium23/obsidian-digital-garden/internal/adapter/driven/sqlite"
	"github.com/vanadium23/obsidian-digital-garden/internal/adapter/driven/vault"
	"github.com/vanadium23/obsidian-digital-garden/internal/application"
	"github.com/vanadium23/obsidian-digital-garden/internal/config"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// app is the composition root shared by every command.
type app struct {
	cfg      *config.Config
	db       *sqliteadapter.DB
	notes    *vault.FS
	upstream *githubadapter.Client
	provider *application.RemoteProvider
	creds    *application.CredentialService
	mapper   *application.PathMapper
	garden   *application.GardenService
}

// newApp loads configuration, opens the database and wires the engine. The
// caller must call close.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Debug("config loaded",
		"repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo,
		"vault", cfg.VaultPath,
		"db_path", cfg.DBPath,
		"theme", cfg.Theme,
	)

	// 2. Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, db: db}
	if err := a.wire(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	// 3. Wire driven adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(a.db, cfg.SecretKey)
	historyStore := sqliteadapter.NewPRHistoryRepo(a.db)
	runStore := sqliteadapter.NewRunRepo(a.db)

	notes, err := vault.NewFS(cfg.VaultPath, cfg.NoteDefaults)
	if err != nil {
		return err
	}
	a.notes = notes
	transformer := compiler.New()

	// 4. Resolve credentials: a stored token takes priority over the env var.
	a.provider = application.NewRemoteProvider(nil)
	a.creds = application.NewCredentialService(credentialStore, a.provider, a.connect)

	token := cfg.GitHubToken
	if cfg.SecretKey != nil {
		if stored := a.creds.StoredGitHubToken(ctx); stored != "" {
			token = stored
		}
	}

	if cfg.HasRemote() && token != "" {
		client, err := a.connectClient(token)
		if err != nil {
			return err
		}
		a.provider.Replace(client)
		slog.Debug("github client created", "repo", client.FullName())
	} else {
		slog.Debug("no github credentials configured, remote operations unavailable")
	}

	// Upstream template and theme registry are public and read-only.
	a.upstream, err = a.connectClient(token)
	if err != nil {
		return err
	}

	// 5. Wire the engine.
	a.mapper = application.NewPathMapper(application.PathSettings{
		RootFolder: cfg.RootFolder,
		Slugify:    cfg.Slugify,
		BaseURL:    cfg.BaseURL,
		RepoName:   cfg.GitHubRepo,
	})
	reconciler := application.NewReconciler(notes, a.provider, transformer, a.mapper)
	publisher := application.NewPublisher(a.provider, transformer, a.mapper)
	batch := application.NewBatchRunner(publisher, cfg.Concurrency)
	updater := application.NewSiteUpdater(a.provider, a.upstream, a.upstream, notes, historyStore, application.SiteSettings{
		Theme:         cfg.Theme,
		BaseTheme:     cfg.BaseTheme,
		SiteName:      cfg.SiteName,
		FaviconPath:   cfg.FaviconPath,
		TemplateFiles: cfg.TemplateFiles,
		NoteDefaults:  cfg.NoteDefaults,
	})

	a.garden = application.NewGardenService(
		notes,
		transformer,
		reconciler,
		publisher,
		batch,
		updater,
		a.mapper,
		historyStore,
		runStore,
	)
	return nil
}

// connect adapts connectClient to application.ConnectFunc.
func (a *app) connect(token string) (application.TokenRemote, error) {
	if err := a.cfg.ValidateRemote(); err != nil {
		return nil, &model.ConfigurationError{Field: "github", Message: err.Error()}
	}
	return a.connectClient(token)
}

func (a *app) connectClient(token string) (*githubadapter.Client, error) {
	opts := githubadapter.Options{
		Owner:        a.cfg.GitHubOwner,
		Repo:         a.cfg.GitHubRepo,
		Branch:       a.cfg.GitHubBranch,
		TemplateRepo: a.cfg.TemplateRepo,
	}
	if a.cfg.GitHubAPIURL == "" {
		return githubadapter.NewClient(token, opts), nil
	}
	client, err := githubadapter.NewClientWithHTTPClient(&http.Client{Timeout: 30 * time.Second}, a.cfg.GitHubAPIURL, token, opts)
	if err != nil {
		return nil, fmt.Errorf("github api url: %w", err)
	}
	return client, nil
}

// requireRemote fails early with a readable message for commands that need
// the site repository.
func (a *app) requireRemote() error {
	if err := a.cfg.ValidateRemote(); err != nil {
		return fmt.Errorf("site repository not configured: %w", err)
	}
	if !a.provider.HasRemote() {
		return application.ErrRemoteNotConfigured
	}
	return nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
