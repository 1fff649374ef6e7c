package github_test

import (
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	ghAdapter "github.com/vanadium23/obsidian-digital-garden/internal/adapter/driven/github"
)

// fakeGitHub is a minimal in-memory GitHub REST API covering the endpoints
// the adapter uses. Files are stored per branch.
type fakeGitHub struct {
	mu        sync.Mutex
	branches  map[string]map[string][]byte
	puts      int
	deletes   int
	refs      []string
	pulls     []map[string]any
	upstream  map[string][]byte
	themes    string
	failPaths map[string]int // path -> status code returned on PUT

	readOnly      bool   // token lacks push permission
	cacheControl  string // sent on every GET when set
	upstreamReads int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		branches:  map[string]map[string][]byte{"main": {}},
		upstream:  map[string][]byte{},
		failPaths: map[string]int{},
	}
}

func gitSHA(content []byte) string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func contentJSON(path string, content []byte) map[string]any {
	return map[string]any{
		"type":     "file",
		"path":     path,
		"encoding": "base64",
		"content":  base64.StdEncoding.EncodeToString(content),
		"sha":      gitSHA(content),
	}
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"login": "alice"})
	})

	mux.HandleFunc("GET /repos/alice/garden", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"default_branch": "main",
			"permissions":    map[string]bool{"pull": true, "push": !f.readOnly},
		})
	})

	mux.HandleFunc("GET /repos/alice/garden/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		ref := r.URL.Query().Get("ref")
		if ref == "" {
			ref = "main"
		}
		path := r.PathValue("path")
		content, ok := f.branches[ref][path]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, contentJSON(path, content))
	})

	mux.HandleFunc("PUT /repos/alice/garden/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Content string `json:"content"`
			SHA     string `json:"sha"`
			Branch  string `json:"branch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		path := r.PathValue("path")
		if status, ok := f.failPaths[path]; ok {
			writeJSON(w, status, map[string]string{"message": "injected failure"})
			return
		}
		files := f.branches[body.Branch]
		if files == nil {
			notFound(w)
			return
		}
		current, exists := files[path]
		if exists && gitSHA(current) != body.SHA {
			writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match", path)})
			return
		}
		if !exists && body.SHA != "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "sha wasn't supplied"})
			return
		}
		content, _ := base64.StdEncoding.DecodeString(body.Content)
		files[path] = content
		f.puts++
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		writeJSON(w, status, map[string]any{"content": contentJSON(path, content)})
	})

	mux.HandleFunc("DELETE /repos/alice/garden/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			SHA    string `json:"sha"`
			Branch string `json:"branch"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		path := r.PathValue("path")
		current, ok := f.branches[body.Branch][path]
		if !ok {
			notFound(w)
			return
		}
		if gitSHA(current) != body.SHA {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "sha mismatch"})
			return
		}
		delete(f.branches[body.Branch], path)
		f.deletes++
		writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]any{"sha": "c0ffee"}})
	})

	mux.HandleFunc("GET /repos/alice/garden/git/trees/{sha}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		files, ok := f.branches[r.PathValue("sha")]
		if !ok {
			notFound(w)
			return
		}
		entries := []map[string]any{{"path": "src", "type": "tree", "sha": "t1"}}
		for p, c := range files {
			entries = append(entries, map[string]any{"path": p, "type": "blob", "sha": gitSHA(c)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"sha": "root", "tree": entries, "truncated": false})
	})

	mux.HandleFunc("GET /repos/alice/garden/git/ref/heads/{branch}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.branches[r.PathValue("branch")]; !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ref":    "refs/heads/" + r.PathValue("branch"),
			"object": map[string]any{"sha": "base-sha", "type": "commit"},
		})
	})

	mux.HandleFunc("POST /repos/alice/garden/git/refs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		name := body.Ref[len("refs/heads/"):]
		copied := map[string][]byte{}
		for p, c := range f.branches["main"] {
			copied[p] = c
		}
		f.branches[name] = copied
		f.refs = append(f.refs, name)
		writeJSON(w, http.StatusCreated, map[string]any{"ref": body.Ref, "object": map[string]any{"sha": body.SHA}})
	})

	mux.HandleFunc("POST /repos/alice/garden/pulls", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.pulls = append(f.pulls, body)
		n := len(f.pulls)
		writeJSON(w, http.StatusCreated, map[string]any{
			"number":   n,
			"html_url": fmt.Sprintf("https://github.com/alice/garden/pull/%d", n),
		})
	})

	mux.HandleFunc("GET /repos/oleeskild/digitalgarden/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.upstreamReads++
		f.mu.Unlock()
		path := r.PathValue("path")
		content, ok := f.upstream[path]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, contentJSON(path, content))
	})

	mux.HandleFunc("GET /repos/obsidianmd/obsidian-releases/contents/community-css-themes.json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, contentJSON("community-css-themes.json", []byte(f.themes)))
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && f.cacheControl != "" {
			w.Header().Set("Cache-Control", f.cacheControl)
		}
		mux.ServeHTTP(w, r)
	})
}

// newTestClient creates a Client backed by an in-memory GitHub.
func newTestClient(t *testing.T, fake *fakeGitHub) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	return newClientFor(t, server, server.Client())
}

// newCachingTestClient puts the production caching transport in front of
// the in-memory GitHub.
func newCachingTestClient(t *testing.T, fake *fakeGitHub) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	httpClient := &http.Client{Transport: ghAdapter.NewCachingTransport(server.Client().Transport)}
	return newClientFor(t, server, httpClient)
}

func newClientFor(t *testing.T, server *httptest.Server, httpClient *http.Client) *ghAdapter.Client {
	t.Helper()

	client, err := ghAdapter.NewClientWithHTTPClient(
		httpClient,
		server.URL+"/",
		"good-token",
		ghAdapter.Options{Owner: "alice", Repo: "garden", TemplateRepo: "oleeskild/digitalgarden"},
	)
	require.NoError(t, err)

	return client
}
