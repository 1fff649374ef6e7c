package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/vanadium23/obsidian-digital-garden/internal/adapter/driving/http"
	"github.com/vanadium23/obsidian-digital-garden/internal/application"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockGarden struct {
	status     model.PublishStatus
	report     model.BatchReport
	err        error
	url        string
	preview    []byte
	prURL      string
	history    []model.PullRequestRecord
	runs       []model.RunRecord
	lastOpts   application.PublishOptions
	published  []string
	deleted    []string
	historyLim int
}

func (m *mockGarden) GetPublishStatus(context.Context) (model.PublishStatus, error) {
	return m.status, m.err
}

func (m *mockGarden) PublishAll(_ context.Context, opts application.PublishOptions) (model.PublishStatus, model.BatchReport, error) {
	m.lastOpts = opts
	return m.status, m.report, m.err
}

func (m *mockGarden) PublishNote(_ context.Context, path string) error {
	m.published = append(m.published, path)
	return m.err
}

func (m *mockGarden) DeleteNote(_ context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	return m.err
}

func (m *mockGarden) NoteURL(context.Context, string) (string, error) { return m.url, m.err }

func (m *mockGarden) PreviewNote(context.Context, string) ([]byte, error) { return m.preview, m.err }

func (m *mockGarden) CreatePullRequestWithSiteChanges(context.Context) (string, error) {
	return m.prURL, m.err
}

func (m *mockGarden) PullRequestHistory(_ context.Context, limit int) ([]model.PullRequestRecord, error) {
	m.historyLim = limit
	return m.history, m.err
}

func (m *mockGarden) RecentRuns(context.Context, int) ([]model.RunRecord, error) { return m.runs, m.err }

type mockSyncer struct {
	report model.BatchReport
	calls  int
}

func (m *mockSyncer) Trigger(context.Context) (model.BatchReport, error) {
	m.calls++
	return m.report, nil
}

type mockTokens struct {
	login string
	err   error
	got   string
}

func (m *mockTokens) SetGitHubToken(_ context.Context, token string) (string, error) {
	m.got = token
	return m.login, m.err
}

// --- Helpers ---

func newServer(garden *mockGarden, syncer httphandler.Syncer, tokens httphandler.TokenSetter) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := httphandler.NewHandler(garden, syncer, tokens, logger)
	return httphandler.NewServeMux(h, logger)
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Tests ---

func TestHealth(t *testing.T) {
	rec := do(t, newServer(&mockGarden{}, nil, nil), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode[httphandler.HealthResponse](t, rec).Status)
}

func TestStatus(t *testing.T) {
	garden := &mockGarden{status: model.PublishStatus{
		UnpublishedNotes: []model.Note{{Path: "B.md"}},
		ChangedNotes:     []model.Note{{Path: "A.md"}},
		DeletedNotePaths: []string{"src/site/notes/Old.md"},
	}}

	rec := do(t, newServer(garden, nil, nil), http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httphandler.StatusResponse](t, rec)
	assert.Equal(t, []string{"B.md"}, resp.Unpublished)
	assert.Equal(t, []string{"A.md"}, resp.Changed)
	assert.Empty(t, resp.Published)
	assert.NotNil(t, resp.Published)
	assert.Equal(t, []string{"src/site/notes/Old.md"}, resp.Deleted)
}

func TestStatus_ReconciliationError(t *testing.T) {
	garden := &mockGarden{err: &model.ReconciliationError{
		RemotePath: "src/site/notes/a-b.md",
		LocalPaths: []string{"a b.md", "A-B.md"},
		Reason:     "duplicate remote path",
	}}

	rec := do(t, newServer(garden, nil, nil), http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublishAll_UsesSyncer(t *testing.T) {
	report := model.BatchReport{}
	report.Add(model.ItemResult{Index: 0, Kind: model.ItemPublish, Path: "A.md"})
	report.Add(model.ItemResult{Index: 1, Kind: model.ItemPublish, Path: "B.md", Err: errors.New("boom")})
	syncer := &mockSyncer{report: report}

	rec := do(t, newServer(&mockGarden{}, syncer, nil), http.MethodPost, "/api/v1/publish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, syncer.calls)

	resp := decode[httphandler.PublishResponse](t, rec)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "Successfully published 1 of 2 notes", resp.Report.Summary)
	require.Len(t, resp.Report.Failures, 1)
	assert.Equal(t, 1, resp.Report.Failures[0].Index)
	assert.Equal(t, "B.md", resp.Report.Failures[0].Path)
	assert.Nil(t, resp.Plan)
}

func TestPublishAll_DryRun(t *testing.T) {
	garden := &mockGarden{status: model.PublishStatus{UnpublishedNotes: []model.Note{{Path: "A.md"}}}}
	syncer := &mockSyncer{}

	rec := do(t, newServer(garden, syncer, nil), http.MethodPost, "/api/v1/publish?dry_run=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, syncer.calls)
	assert.True(t, garden.lastOpts.DryRun)

	resp := decode[httphandler.PublishResponse](t, rec)
	require.NotNil(t, resp.Plan)
	assert.Nil(t, resp.Report)
	assert.Equal(t, []string{"A.md"}, resp.Plan.Unpublished)
}

func TestPublishAll_BulkDeleteNotConfirmed(t *testing.T) {
	garden := &mockGarden{err: fmt.Errorf("3 remote notes: %w", model.ErrBulkDeleteNotConfirmed)}

	rec := do(t, newServer(garden, nil, nil), http.MethodPost, "/api/v1/publish", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, garden.lastOpts.AllowBulkDelete)

	rec = do(t, newServer(garden, &mockSyncer{}, nil), http.MethodPost, "/api/v1/publish?allow_bulk_delete=true", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, garden.lastOpts.AllowBulkDelete)
}

func TestPublishNote(t *testing.T) {
	garden := &mockGarden{}
	srv := newServer(garden, nil, nil)

	rec := do(t, srv, http.MethodPost, "/api/v1/notes/publish?path=A.md", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"A.md"}, garden.published)

	rec = do(t, srv, http.MethodPost, "/api/v1/notes/publish", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishNote_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("loading x: %w", model.ErrNotFound), http.StatusNotFound},
		{"not eligible", fmt.Errorf("x: %w", model.ErrNotEligible), http.StatusUnprocessableEntity},
		{"rate limited", &model.RemoteError{Op: "write", Path: "x", StatusCode: http.StatusForbidden, RateLimited: true}, http.StatusTooManyRequests},
		{"remote", &model.RemoteError{Op: "write", Path: "x", StatusCode: http.StatusBadGateway}, http.StatusBadGateway},
		{"no remote", application.ErrRemoteNotConfigured, http.StatusServiceUnavailable},
		{"conflict", fmt.Errorf("write x: %w", model.ErrConflict), http.StatusConflict},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newServer(&mockGarden{err: tt.err}, nil, nil), http.MethodPost, "/api/v1/notes/publish?path=x.md", "")
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDeleteNote(t *testing.T) {
	garden := &mockGarden{}
	rec := do(t, newServer(garden, nil, nil), http.MethodDelete, "/api/v1/notes?path=src/site/notes/A.md", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"src/site/notes/A.md"}, garden.deleted)
}

func TestDeleteNote_OutOfScope(t *testing.T) {
	garden := &mockGarden{err: fmt.Errorf(".env: %w", model.ErrOutOfScope)}
	rec := do(t, newServer(garden, nil, nil), http.MethodDelete, "/api/v1/notes?path=.env", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoteURL(t *testing.T) {
	garden := &mockGarden{url: "https://garden.netlify.app/notes/a/"}
	rec := do(t, newServer(garden, nil, nil), http.MethodGet, "/api/v1/notes/url?path=notes/A.md", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httphandler.URLResponse](t, rec)
	assert.Equal(t, "notes/A.md", resp.Path)
	assert.Equal(t, "https://garden.netlify.app/notes/a/", resp.URL)
}

func TestPreviewNote(t *testing.T) {
	garden := &mockGarden{preview: []byte("---\ndg-publish: true\n---\n# Hello\n<script>x</script>\n")}
	rec := do(t, newServer(garden, nil, nil), http.MethodGet, "/api/v1/notes/preview?path=A.md", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httphandler.PreviewResponse](t, rec)
	assert.Contains(t, resp.HTML, "<h1")
	assert.Contains(t, resp.HTML, "Hello")
	assert.NotContains(t, resp.HTML, "dg-publish")
	assert.NotContains(t, resp.HTML, "<script>")
	assert.Contains(t, resp.Markdown, "dg-publish: true")
}

func TestCreateTemplatePR(t *testing.T) {
	garden := &mockGarden{prURL: "https://github.com/alice/garden/pull/7"}
	rec := do(t, newServer(garden, nil, nil), http.MethodPost, "/api/v1/template/pr", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httphandler.TemplatePRResponse](t, rec)
	assert.Equal(t, "https://github.com/alice/garden/pull/7", resp.URL)
	assert.False(t, resp.UpToDate)
}

func TestCreateTemplatePR_UpToDate(t *testing.T) {
	rec := do(t, newServer(&mockGarden{}, nil, nil), http.MethodPost, "/api/v1/template/pr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[httphandler.TemplatePRResponse](t, rec).UpToDate)
}

func TestCreateTemplatePR_ConfigurationError(t *testing.T) {
	garden := &mockGarden{err: &model.ConfigurationError{Field: "base theme", Message: `theme "Minimal" does not support "light"`}}
	rec := do(t, newServer(garden, nil, nil), http.MethodPost, "/api/v1/template/pr", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTemplateHistory(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	garden := &mockGarden{history: []model.PullRequestRecord{
		{ID: 2, URL: "https://github.com/alice/garden/pull/2", CreatedAt: created},
	}}

	rec := do(t, newServer(garden, nil, nil), http.MethodGet, "/api/v1/template/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, garden.historyLim)

	resp := decode[[]httphandler.PullRequestResponse](t, rec)
	require.Len(t, resp, 1)
	assert.Equal(t, "2026-03-01T10:00:00Z", resp[0].CreatedAt)
}

func TestRuns_Empty(t *testing.T) {
	rec := do(t, newServer(&mockGarden{}, nil, nil), http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSetCredentials(t *testing.T) {
	tokens := &mockTokens{login: "alice"}
	rec := do(t, newServer(&mockGarden{}, nil, tokens), http.MethodPut, "/api/v1/credentials", `{"token":"ghp_abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ghp_abc", tokens.got)
	assert.Equal(t, "alice", decode[httphandler.CredentialsResponse](t, rec).Login)
}

func TestSetCredentials_Errors(t *testing.T) {
	rec := do(t, newServer(&mockGarden{}, nil, nil), http.MethodPut, "/api/v1/credentials", `{"token":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, newServer(&mockGarden{}, nil, &mockTokens{}), http.MethodPut, "/api/v1/credentials", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tokens := &mockTokens{err: fmt.Errorf("storing token: %w", driven.ErrEncryptionKeyNotSet)}
	rec = do(t, newServer(&mockGarden{}, nil, tokens), http.MethodPut, "/api/v1/credentials", `{"token":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newServer(&mockGarden{}, nil, nil), http.MethodGet, "/api/v1/publish", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type panicGarden struct{ mockGarden }

func (p *panicGarden) GetPublishStatus(context.Context) (model.PublishStatus, error) {
	panic("boom")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := httphandler.NewHandler(&panicGarden{}, nil, nil, logger)
	srv := httphandler.NewServeMux(h, logger)

	rec := do(t, srv, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
