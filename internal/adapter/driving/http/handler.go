// Package httphandler serves the publication center JSON API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/application"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Garden is the subset of application.GardenService the API exposes.
type Garden interface {
	GetPublishStatus(ctx context.Context) (model.PublishStatus, error)
	PublishAll(ctx context.Context, opts application.PublishOptions) (model.PublishStatus, model.BatchReport, error)
	PublishNote(ctx context.Context, path string) error
	DeleteNote(ctx context.Context, remotePath string) error
	NoteURL(ctx context.Context, path string) (string, error)
	PreviewNote(ctx context.Context, path string) ([]byte, error)
	CreatePullRequestWithSiteChanges(ctx context.Context) (string, error)
	PullRequestHistory(ctx context.Context, limit int) ([]model.PullRequestRecord, error)
	RecentRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
}

// Syncer runs a batch through the sync loop so it never overlaps a
// scheduled run.
type Syncer interface {
	Trigger(ctx context.Context) (model.BatchReport, error)
}

// TokenSetter validates and activates a GitHub token.
type TokenSetter interface {
	SetGitHubToken(ctx context.Context, token string) (string, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	garden Garden
	syncer Syncer
	tokens TokenSetter
	logger *slog.Logger
}

// NewHandler creates a Handler. syncer and tokens may be nil; the publish
// endpoint then runs batches directly and the credentials endpoint is
// unavailable.
func NewHandler(garden Garden, syncer Syncer, tokens TokenSetter, logger *slog.Logger) *Handler {
	return &Handler{
		garden: garden,
		syncer: syncer,
		tokens: tokens,
		logger: logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/status", h.Status)
	mux.HandleFunc("POST /api/v1/publish", h.PublishAll)
	mux.HandleFunc("POST /api/v1/notes/publish", h.PublishNote)
	mux.HandleFunc("DELETE /api/v1/notes", h.DeleteNote)
	mux.HandleFunc("GET /api/v1/notes/url", h.NoteURL)
	mux.HandleFunc("GET /api/v1/notes/preview", h.PreviewNote)
	mux.HandleFunc("POST /api/v1/template/pr", h.CreateTemplatePR)
	mux.HandleFunc("GET /api/v1/template/history", h.TemplateHistory)
	mux.HandleFunc("GET /api/v1/runs", h.Runs)
	mux.HandleFunc("PUT /api/v1/credentials", h.SetCredentials)

	return ApplyMiddleware(mux, logger)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Status reconciles the vault against the remote and returns the four sets.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.garden.GetPublishStatus(r.Context())
	if err != nil {
		h.writeDomainError(w, "get publish status", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(status))
}

// PublishAll runs a full batch. dry_run=true returns the plan only;
// allow_bulk_delete=true permits removing every published note.
func (h *Handler) PublishAll(w http.ResponseWriter, r *http.Request) {
	dryRun := queryBool(r, "dry_run")
	bulk := queryBool(r, "allow_bulk_delete")

	if h.syncer != nil && !dryRun && !bulk {
		report, err := h.syncer.Trigger(r.Context())
		if err != nil {
			h.writeDomainError(w, "publish all", err)
			return
		}
		writeJSON(w, http.StatusOK, PublishResponse{Report: toReportResponse(report)})
		return
	}

	status, report, err := h.garden.PublishAll(r.Context(), application.PublishOptions{
		DryRun:          dryRun,
		AllowBulkDelete: bulk,
	})
	if err != nil {
		h.writeDomainError(w, "publish all", err)
		return
	}

	resp := PublishResponse{Report: toReportResponse(report)}
	if dryRun {
		plan := toStatusResponse(status)
		resp.Plan = &plan
		resp.Report = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// PublishNote publishes a single note given by ?path=.
func (h *Handler) PublishNote(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	if err := h.garden.PublishNote(r.Context(), path); err != nil {
		h.writeDomainError(w, "publish note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote removes a published note given by its remote ?path=.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	if err := h.garden.DeleteNote(r.Context(), path); err != nil {
		h.writeDomainError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NoteURL returns the public URL of a note.
func (h *Handler) NoteURL(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	url, err := h.garden.NoteURL(r.Context(), path)
	if err != nil {
		h.writeDomainError(w, "note url", err)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{Path: path, URL: url})
}

// PreviewNote renders the compiled note to sanitized HTML.
func (h *Handler) PreviewNote(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	compiled, err := h.garden.PreviewNote(r.Context(), path)
	if err != nil {
		h.writeDomainError(w, "preview note", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{
		Path:     path,
		Markdown: string(compiled),
		HTML:     renderPreview(compiled),
	})
}

// CreateTemplatePR opens the site template pull request. An empty URL means
// the site is already up to date.
func (h *Handler) CreateTemplatePR(w http.ResponseWriter, r *http.Request) {
	url, err := h.garden.CreatePullRequestWithSiteChanges(r.Context())
	if err != nil {
		h.writeDomainError(w, "create template pull request", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplatePRResponse{URL: url, UpToDate: url == ""})
}

// TemplateHistory returns recent template pull requests, newest first.
func (h *Handler) TemplateHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.garden.PullRequestHistory(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeDomainError(w, "pull request history", err)
		return
	}

	resp := make([]PullRequestResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toPullRequestResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Runs returns recent batch runs, newest first.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.garden.RecentRuns(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeDomainError(w, "recent runs", err)
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetCredentials validates and stores a GitHub token.
func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "credential storage not available")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	login, err := h.tokens.SetGitHubToken(r.Context(), req.Token)
	if err != nil {
		h.writeDomainError(w, "set credentials", err)
		return
	}
	writeJSON(w, http.StatusOK, CredentialsResponse{Login: login})
}

// writeDomainError maps engine errors to HTTP status codes. Unexpected
// errors are logged and reported without detail.
func (h *Handler) writeDomainError(w http.ResponseWriter, op string, err error) {
	var (
		cfgErr    *model.ConfigurationError
		recErr    *model.ReconciliationError
		remoteErr *model.RemoteError
	)

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrNotEligible):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrOutOfScope):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrBulkDeleteNotConfirmed), errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &recErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrRemoteNotConfigured), errors.Is(err, driven.ErrEncryptionKeyNotSet):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, model.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &remoteErr):
		h.logger.Error("remote call failed", "op", op, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path query parameter")
		return "", false
	}
	return path, true
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
