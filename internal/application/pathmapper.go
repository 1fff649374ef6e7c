package application

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// NotesDir is the remote directory holding published notes. Only paths below
// it are ever reported as deletable.
const NotesDir = "src/site/notes/"

// PathSettings configures how local paths map to remote paths and URLs.
type PathSettings struct {
	RootFolder string // Vault folder stripped from every note path.
	Slugify    bool
	BaseURL    string
	RepoName   string // Used to derive the default base URL.
}

// PathMapper derives remote paths and public URLs from vault paths. It never
// touches the network.
type PathMapper struct {
	root    string
	slugify bool
	baseURL string
}

// NewPathMapper creates a PathMapper from settings.
func NewPathMapper(s PathSettings) *PathMapper {
	return &PathMapper{
		root:    strings.Trim(s.RootFolder, "/"),
		slugify: s.Slugify,
		baseURL: normalizeBaseURL(s.BaseURL, s.RepoName),
	}
}

// BaseURL returns the normalized site URL without a trailing slash.
func (m *PathMapper) BaseURL() string {
	return m.baseURL
}

// RemotePath maps a vault path to its location in the remote repository.
func (m *PathMapper) RemotePath(localPath string) string {
	return NotesDir + m.relativePath(localPath, m.slugify)
}

// InScope reports whether a remote path is a published note managed by the
// engine. Template and configuration files are never in scope.
func (m *PathMapper) InScope(remotePath string) bool {
	if !strings.HasPrefix(remotePath, NotesDir) || len(remotePath) == len(NotesDir) {
		return false
	}
	return strings.EqualFold(path.Ext(remotePath), ".md")
}

// NoteURL returns the public URL of a note.
func (m *PathMapper) NoteURL(note model.Note) string {
	if note.Home {
		return m.baseURL + "/"
	}
	if p := strings.Trim(note.Permalink, "/"); p != "" {
		return m.baseURL + "/" + p + "/"
	}

	// The site template derives page URLs from a slugified file path stem,
	// so URLs are slugged even when remote file names are not.
	rel := m.relativePath(note.Path, true)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return m.baseURL + "/" + rel + "/"
}

func (m *PathMapper) relativePath(localPath string, slugify bool) string {
	p := strings.TrimPrefix(path.Clean("/"+localPath), "/")
	if m.root != "" && strings.HasPrefix(p, m.root+"/") {
		p = p[len(m.root)+1:]
	}
	if !slugify {
		return p
	}

	segments := strings.Split(p, "/")
	last := len(segments) - 1
	for i, seg := range segments {
		ext := ""
		if i == last {
			ext = path.Ext(seg)
			seg = strings.TrimSuffix(seg, ext)
		}
		if s := Slugify(seg); s != "" {
			seg = s
		}
		segments[i] = seg + strings.ToLower(ext)
	}
	return strings.Join(segments, "/")
}

// Slugify lowercases s, folds diacritics and joins runs of letters and
// digits with single dashes.
func Slugify(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func normalizeBaseURL(base, repo string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		if repo == "" {
			return ""
		}
		base = repo + ".netlify.app"
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}
