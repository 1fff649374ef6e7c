package application_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/application"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// --- Mock implementations ---

// fakeRemote is an in-memory remote repository with GitHub-like write
// semantics: writing content whose signature already matches is a no-op.
type fakeRemote struct {
	mu          sync.Mutex
	files       map[string][]byte
	failWrite   map[string]error
	failRead    map[string]error
	writes      []string
	deletes     []string
	reads       []string
	proposals   []model.ChangeProposal
	proposalURL string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:       map[string][]byte{},
		failWrite:   map[string]error{},
		failRead:    map[string]error{},
		proposalURL: "https://github.com/alice/garden/pull/1",
	}
}

func (f *fakeRemote) Read(_ context.Context, path string) (model.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, path)
	if err, ok := f.failRead[path]; ok {
		return model.RemoteFile{}, err
	}
	content, ok := f.files[path]
	if !ok {
		return model.RemoteFile{}, fmt.Errorf("reading %s: %w", path, model.ErrNotFound)
	}
	return model.RemoteFile{Path: path, Content: content, Signature: application.Signature(content)}, nil
}

func (f *fakeRemote) Write(_ context.Context, path string, content []byte, knownSignature string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWrite[path]; ok {
		return "", err
	}
	sig := application.Signature(content)
	current, exists := f.files[path]
	if exists && knownSignature != "" && application.Signature(current) != knownSignature {
		return "", model.ErrConflict
	}
	if exists && application.Signature(current) == sig {
		return sig, nil
	}
	f.writes = append(f.writes, path)
	f.files[path] = slices.Clone(content)
	return sig, nil
}

func (f *fakeRemote) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		return fmt.Errorf("deleting %s: %w", path, model.ErrNotFound)
	}
	f.deletes = append(f.deletes, path)
	delete(f.files, path)
	return nil
}

func (f *fakeRemote) Manifest(_ context.Context, scope func(string) bool) (model.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := model.Manifest{}
	for p, content := range f.files {
		if scope == nil || scope(p) {
			m[p] = application.Signature(content)
		}
	}
	return m, nil
}

func (f *fakeRemote) CreateChangeProposal(_ context.Context, proposal model.ChangeProposal) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(proposal.Changes) == 0 {
		return "", nil
	}
	f.proposals = append(f.proposals, proposal)
	return f.proposalURL, nil
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type fakeNotes struct {
	notes  map[string]model.Note
	binary map[string][]byte
	marked []string
}

func newFakeNotes(notes ...model.Note) *fakeNotes {
	f := &fakeNotes{notes: map[string]model.Note{}, binary: map[string][]byte{}}
	for _, n := range notes {
		f.notes[n.Path] = n
	}
	return f
}

func (f *fakeNotes) ListCandidates(_ context.Context) ([]model.Note, error) {
	var out []model.Note
	for _, n := range f.notes {
		if n.Publish && n.IsMarkdown() {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotes) Get(_ context.Context, path string) (model.Note, error) {
	n, ok := f.notes[path]
	if !ok {
		return model.Note{}, fmt.Errorf("note %s: %w", path, model.ErrNotFound)
	}
	return n, nil
}

func (f *fakeNotes) ReadBinary(_ context.Context, path string) ([]byte, error) {
	b, ok := f.binary[path]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", path, model.ErrNotFound)
	}
	return b, nil
}

func (f *fakeNotes) MarkPublish(_ context.Context, path string) error {
	n, ok := f.notes[path]
	if !ok {
		return fmt.Errorf("note %s: %w", path, model.ErrNotFound)
	}
	n.Publish = true
	f.notes[path] = n
	f.marked = append(f.marked, path)
	return nil
}

// rawTransformer publishes the note content unchanged.
type rawTransformer struct{}

func (rawTransformer) Transform(_ context.Context, note model.Note) ([]byte, error) {
	return note.Content, nil
}

type fakeHistory struct {
	urls []string
}

func (f *fakeHistory) Append(_ context.Context, url string) error {
	f.urls = append(f.urls, url)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]model.PullRequestRecord, error) {
	var out []model.PullRequestRecord
	for i := len(f.urls) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, model.PullRequestRecord{ID: int64(i + 1), URL: f.urls[i], CreatedAt: time.Unix(int64(i), 0)})
	}
	return out, nil
}

type fakeRuns struct {
	runs []model.RunRecord
}

func (f *fakeRuns) Record(_ context.Context, run model.RunRecord) (int64, error) {
	run.ID = int64(len(f.runs) + 1)
	f.runs = append(f.runs, run)
	return run.ID, nil
}

func (f *fakeRuns) Recent(_ context.Context, limit int) ([]model.RunRecord, error) {
	var out []model.RunRecord
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.runs[i])
	}
	return out, nil
}

type fakeThemes struct {
	themes []model.Theme
	calls  int
}

func (f *fakeThemes) ListThemes(_ context.Context) ([]model.Theme, error) {
	f.calls++
	return f.themes, nil
}

func (f *fakeThemes) FindTheme(_ context.Context, name string) (model.Theme, error) {
	f.calls++
	for _, t := range f.themes {
		if t.Name == name {
			return t, nil
		}
	}
	return model.Theme{}, fmt.Errorf("theme %s: %w", name, model.ErrNotFound)
}

type fakeUpstream struct {
	files map[string][]byte
}

func (f *fakeUpstream) ReadTemplateFile(_ context.Context, path string) ([]byte, error) {
	b, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", path, model.ErrNotFound)
	}
	return b, nil
}

// recordingProgress captures every progress callback.
type recordingProgress struct {
	mu       sync.Mutex
	total    int
	done     []int
	indices  []int
	finished bool
}

func (p *recordingProgress) Start(total int) { p.total = total }

func (p *recordingProgress) Advance(done, _ int, result model.ItemResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, done)
	p.indices = append(p.indices, result.Index)
}

func (p *recordingProgress) Finish(model.BatchReport) { p.finished = true }

// --- Helpers ---

func note(path, content string) model.Note {
	return model.Note{
		Path:     path,
		Content:  []byte(content),
		Publish:  true,
		Settings: model.DefaultNoteSettings(),
	}
}

func newMapper() *application.PathMapper {
	return application.NewPathMapper(application.PathSettings{RepoName: "garden"})
}
