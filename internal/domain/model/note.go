package model

import (
	"path"
	"strings"
)

// Frontmatter keys recognised by the site template.
const (
	KeyPublish         = "dg-publish"
	KeyHome            = "dg-home"
	KeyPermalink       = "dg-permalink"
	KeyPermalinkAlt    = "permalink"
	KeyHomeLink        = "dg-home-link"
	KeyPassFrontmatter = "dg-pass-frontmatter"
	KeyShowBacklinks   = "dg-show-backlinks"
	KeyShowLocalGraph  = "dg-show-local-graph"
	KeyShowInlineTitle = "dg-show-inline-title"
	KeyShowFileTree    = "dg-show-file-tree"
	KeyEnableSearch    = "dg-enable-search"
	KeyShowToc         = "dg-show-toc"
	KeyLinkPreview     = "dg-link-preview"
	KeyShowTags        = "dg-show-tags"
)

// Note is a Markdown file discovered in the local vault. It is rebuilt on every
// scan and never persisted by the engine.
type Note struct {
	Path        string // Vault-relative, slash separated. Unique per vault.
	Content     []byte // Raw file bytes.
	Frontmatter map[string]any
	Body        string
	Publish     bool   // dg-publish flag.
	Home        bool   // dg-home flag; the note is served at the site root.
	Permalink   string // dg-permalink or permalink, without surrounding slashes.
	Settings    NoteSettings
}

// IsMarkdown reports whether the note path has a .md extension.
func (n Note) IsMarkdown() bool {
	return strings.EqualFold(path.Ext(n.Path), ".md")
}

// Name returns the file name of the note.
func (n Note) Name() string {
	return path.Base(n.Path)
}

// NoteSettings is the effective per-note rendering configuration after merging
// the global defaults with frontmatter overrides.
type NoteSettings struct {
	HomeLink        bool
	PassFrontmatter bool
	ShowBacklinks   bool
	ShowLocalGraph  bool
	ShowInlineTitle bool
	ShowFileTree    bool
	EnableSearch    bool
	ShowToc         bool
	LinkPreview     bool
	ShowTags        bool
}

// DefaultNoteSettings returns the defaults used when nothing is configured.
func DefaultNoteSettings() NoteSettings {
	return NoteSettings{HomeLink: true}
}

// NoteOverrides holds per-note overrides read from frontmatter. Nil pointer
// fields mean "use the global default" for that setting.
type NoteOverrides struct {
	HomeLink        *bool
	PassFrontmatter *bool
	ShowBacklinks   *bool
	ShowLocalGraph  *bool
	ShowInlineTitle *bool
	ShowFileTree    *bool
	EnableSearch    *bool
	ShowToc         *bool
	LinkPreview     *bool
	ShowTags        *bool
}

// MergeNoteSettings applies overrides on top of defaults.
func MergeNoteSettings(defaults NoteSettings, o NoteOverrides) NoteSettings {
	merged := defaults
	pick := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	pick(&merged.HomeLink, o.HomeLink)
	pick(&merged.PassFrontmatter, o.PassFrontmatter)
	pick(&merged.ShowBacklinks, o.ShowBacklinks)
	pick(&merged.ShowLocalGraph, o.ShowLocalGraph)
	pick(&merged.ShowInlineTitle, o.ShowInlineTitle)
	pick(&merged.ShowFileTree, o.ShowFileTree)
	pick(&merged.EnableSearch, o.EnableSearch)
	pick(&merged.ShowToc, o.ShowToc)
	pick(&merged.LinkPreview, o.LinkPreview)
	pick(&merged.ShowTags, o.ShowTags)
	return merged
}

// Fields returns the settings keyed by their frontmatter name. The order of
// keys is not significant; callers that need determinism must sort.
func (s NoteSettings) Fields() map[string]bool {
	return map[string]bool{
		KeyHomeLink:        s.HomeLink,
		KeyPassFrontmatter: s.PassFrontmatter,
		KeyShowBacklinks:   s.ShowBacklinks,
		KeyShowLocalGraph:  s.ShowLocalGraph,
		KeyShowInlineTitle: s.ShowInlineTitle,
		KeyShowFileTree:    s.ShowFileTree,
		KeyEnableSearch:    s.EnableSearch,
		KeyShowToc:         s.ShowToc,
		KeyLinkPreview:     s.LinkPreview,
		KeyShowTags:        s.ShowTags,
	}
}

// OverridesFromFields builds NoteOverrides from a frontmatter-keyed map,
// ignoring keys that are not note settings.
func OverridesFromFields(fields map[string]bool) NoteOverrides {
	var o NoteOverrides
	set := func(key string, dst **bool) {
		if v, ok := fields[key]; ok {
			*dst = &v
		}
	}
	set(KeyHomeLink, &o.HomeLink)
	set(KeyPassFrontmatter, &o.PassFrontmatter)
	set(KeyShowBacklinks, &o.ShowBacklinks)
	set(KeyShowLocalGraph, &o.ShowLocalGraph)
	set(KeyShowInlineTitle, &o.ShowInlineTitle)
	set(KeyShowFileTree, &o.ShowFileTree)
	set(KeyEnableSearch, &o.EnableSearch)
	set(KeyShowToc, &o.ShowToc)
	set(KeyLinkPreview, &o.LinkPreview)
	set(KeyShowTags, &o.ShowTags)
	return o
}

// IsNoteSettingKey reports whether key is one of the per-note setting keys.
func IsNoteSettingKey(key string) bool {
	_, ok := DefaultNoteSettings().Fields()[key]
	return ok
}
