package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of a health check.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse lists vault paths per publish state, plus remote paths
// pending deletion.
type StatusResponse struct {
	Unpublished []string `json:"unpublished"`
	Changed     []string `json:"changed"`
	Published   []string `json:"published"`
	Deleted     []string `json:"deleted"`
}

// FailureResponse describes one failed batch item.
type FailureResponse struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ReportResponse is the JSON representation of a batch report.
type ReportResponse struct {
	Summary       string            `json:"summary"`
	Published     int               `json:"published"`
	PublishFailed int               `json:"publish_failed"`
	Deleted       int               `json:"deleted"`
	DeleteFailed  int               `json:"delete_failed"`
	Failures      []FailureResponse `json:"failures"`
}

// PublishResponse carries either the batch report or, for dry runs, the plan.
type PublishResponse struct {
	Report *ReportResponse `json:"report,omitempty"`
	Plan   *StatusResponse `json:"plan,omitempty"`
}

// URLResponse is the public URL of a note.
type URLResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// PreviewResponse is a compiled note and its sanitized HTML rendering.
type PreviewResponse struct {
	Path     string `json:"path"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// TemplatePRResponse is the result of a site template update.
type TemplatePRResponse struct {
	URL      string `json:"url,omitempty"`
	UpToDate bool   `json:"up_to_date"`
}

// PullRequestResponse is one entry of the template PR history.
type PullRequestResponse struct {
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

// RunResponse is one recorded batch run.
type RunResponse struct {
	ID            int64  `json:"id"`
	Published     int    `json:"published"`
	PublishFailed int    `json:"publish_failed"`
	Deleted       int    `json:"deleted"`
	DeleteFailed  int    `json:"delete_failed"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
}

// CredentialsRequest is the body of PUT /api/v1/credentials.
type CredentialsRequest struct {
	Token string `json:"token"`
}

// CredentialsResponse reports the GitHub login the token belongs to.
type CredentialsResponse struct {
	Login string `json:"login"`
}

func notePaths(notes []model.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Path)
	}
	return out
}

func toStatusResponse(s model.PublishStatus) StatusResponse {
	deleted := s.DeletedNotePaths
	if deleted == nil {
		deleted = []string{}
	}
	return StatusResponse{
		Unpublished: notePaths(s.UnpublishedNotes),
		Changed:     notePaths(s.ChangedNotes),
		Published:   notePaths(s.PublishedNotes),
		Deleted:     deleted,
	}
}

func toReportResponse(r model.BatchReport) *ReportResponse {
	failures := make([]FailureResponse, 0)
	for _, res := range r.Failures() {
		failures = append(failures, FailureResponse{
			Index: res.Index,
			Kind:  string(res.Kind),
			Path:  res.Path,
			Error: res.Err.Error(),
		})
	}
	return &ReportResponse{
		Summary:       r.Summary(),
		Published:     r.Published,
		PublishFailed: r.PublishFailed,
		Deleted:       r.Deleted,
		DeleteFailed:  r.DeleteFailed,
		Failures:      failures,
	}
}

func toPullRequestResponse(rec model.PullRequestRecord) PullRequestResponse {
	return PullRequestResponse{
		URL:       rec.URL,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toRunResponse(run model.RunRecord) RunResponse {
	return RunResponse{
		ID:            run.ID,
		Published:     run.Published,
		PublishFailed: run.PublishFailed,
		Deleted:       run.Deleted,
		DeleteFailed:  run.DeleteFailed,
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:    run.FinishedAt.UTC().Format(time.RFC3339),
	}
}
