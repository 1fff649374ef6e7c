package vault

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

const delim = "---"

// splitFrontmatter locates a leading YAML block between --- delimiters. rest
// is everything after the closing delimiter, starting with its line break.
func splitFrontmatter(data []byte) (block, rest []byte, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, data, false
	}

	after := trimmed[len(delim):]
	idx := bytes.Index(after, []byte("\n"+delim))
	if idx < 0 {
		return nil, data, false
	}

	return after[:idx], after[idx+1+len(delim):], true
}

// parseNote builds a Note from raw file bytes. Invalid YAML leaves the whole
// file as body with empty frontmatter.
func parseNote(path string, data []byte, defaults model.NoteSettings) model.Note {
	note := model.Note{
		Path:        path,
		Content:     data,
		Frontmatter: map[string]any{},
		Body:        string(data),
	}

	if block, rest, ok := splitFrontmatter(data); ok {
		var fm map[string]any
		if err := yaml.Unmarshal(block, &fm); err != nil {
			slog.Warn("invalid frontmatter, treating as body", "path", path, "error", err)
		} else {
			if fm != nil {
				note.Frontmatter = fm
			}
			note.Body = strings.TrimLeft(string(rest), "\n\r")
		}
	}

	fm := note.Frontmatter
	note.Publish = boolField(fm, model.KeyPublish)
	note.Home = boolField(fm, model.KeyHome)
	note.Permalink = permalinkField(fm)

	overrides := map[string]bool{}
	for key, raw := range fm {
		if !model.IsNoteSettingKey(key) {
			continue
		}
		if v, ok := toBool(raw); ok {
			overrides[key] = v
		}
	}
	note.Settings = model.MergeNoteSettings(defaults, model.OverridesFromFields(overrides))

	return note
}

func boolField(fm map[string]any, key string) bool {
	v, _ := toBool(fm[key])
	return v
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		return false, false
	}
}

// permalinkField prefers dg-permalink over permalink and strips slashes.
func permalinkField(fm map[string]any) string {
	for _, key := range []string{model.KeyPermalink, model.KeyPermalinkAlt} {
		if s, ok := fm[key].(string); ok {
			if s = strings.Trim(strings.TrimSpace(s), "/"); s != "" {
				return s
			}
		}
	}
	return ""
}

// setFrontmatterBool sets key to value in the leading YAML block, creating
// the block when missing. Key order and the body are preserved.
func setFrontmatterBool(data []byte, key string, value bool) ([]byte, error) {
	scalar := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)}

	block, rest, ok := splitFrontmatter(data)
	if !ok {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%s\n%s: %s\n%s\n", delim, key, scalar.Value, delim)
		buf.Write(data)
		return buf.Bytes(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	var mapping *yaml.Node
	switch {
	case doc.Kind == 0:
		mapping = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}
	case len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode:
		mapping = doc.Content[0]
	default:
		return nil, errors.New("frontmatter is not a mapping")
	}

	replaced := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = scalar
			replaced = true
			break
		}
	}
	if !replaced {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			scalar,
		)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(out)
	buf.WriteString(delim)
	buf.Write(rest)
	return buf.Bytes(), nil
}
