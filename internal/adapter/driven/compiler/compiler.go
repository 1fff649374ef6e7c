// Package compiler converts vault notes into the Markdown consumed by the
// site template.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Transformer = (*Compiler)(nil)

// HomeTag marks the garden entry note for the site template.
const HomeTag = "gardenEntry"

// Compiler rewrites note frontmatter into the keys the site template reads.
// Output is deterministic: equal notes compile to equal bytes.
type Compiler struct{}

// New creates a Compiler.
func New() *Compiler {
	return &Compiler{}
}

// Transform returns the compiled note: a generated frontmatter block followed
// by the untouched body.
func (c *Compiler) Transform(ctx context.Context, note model.Note) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fm := Frontmatter(note)
	out, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", note.Path, err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(out)
	buf.WriteString("---\n")
	buf.WriteString(note.Body)
	return buf.Bytes(), nil
}

// Frontmatter builds the published frontmatter for note. Unless the note
// passes its frontmatter through, only publisher keys survive.
func Frontmatter(note model.Note) map[string]any {
	fm := map[string]any{}
	if note.Settings.PassFrontmatter {
		for k, v := range note.Frontmatter {
			fm[k] = v
		}
	}

	fm[model.KeyPublish] = true

	switch {
	case note.Home:
		fm[model.KeyHome] = true
		fm[model.KeyPermalinkAlt] = "/"
		fm["tags"] = withHomeTag(fm["tags"])
	case note.Permalink != "":
		fm[model.KeyPermalink] = note.Permalink
		fm[model.KeyPermalinkAlt] = "/" + strings.Trim(note.Permalink, "/") + "/"
	}

	for key, v := range note.Settings.Fields() {
		if key == model.KeyPassFrontmatter {
			continue
		}
		fm[key] = v
	}

	return fm
}

func withHomeTag(existing any) any {
	switch v := existing.(type) {
	case []any:
		for _, t := range v {
			if t == HomeTag {
				return v
			}
		}
		return append(append([]any{}, v...), HomeTag)
	case string:
		if v == "" || v == HomeTag {
			return HomeTag
		}
		return []any{v, HomeTag}
	default:
		return HomeTag
	}
}
