package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vanadium23/obsidian-digital-garden/internal/adapter/driven/vault"
	httphandler "github.com/vanadium23/obsidian-digital-garden/internal/adapter/driving/http"
	"github.com/vanadium23/obsidian-digital-garden/internal/application"
)

// newSyncService builds the sync loop, honoring --no-watch.
func newSyncService(cmd *cli.Command, a *app) *application.SyncService {
	if cmd.Bool("no-watch") {
		return application.NewSyncService(a.garden, nil, a.cfg.SyncInterval)
	}
	watcher := vault.NewWatcher(a.notes.Root(), vault.DefaultDebounce)
	return application.NewSyncService(a.garden, watcher, a.cfg.SyncInterval)
}

// serveAction runs the HTTP API and the sync loop until the process is
// signalled.
func serveAction(ctx context.Context, cmd *cli.Command, a *app) error {
	syncSvc := newSyncService(cmd, a)

	logger := slog.Default()
	handler := httphandler.NewServeMux(httphandler.NewHandler(a.garden, syncSvc, a.creds, logger), logger)

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Minute, // full batch publishes run inside the request
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if !a.provider.HasRemote() {
			slog.Warn("no remote configured, sync loop waits for credentials")
		}
		syncSvc.Start(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("http server starting", "addr", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	err := g.Wait()
	slog.Info("shutdown complete")
	return err
}

// watchAction runs only the sync loop.
func watchAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if err := a.requireRemote(); err != nil {
		return err
	}
	newSyncService(cmd, a).Start(ctx)
	return nil
}
