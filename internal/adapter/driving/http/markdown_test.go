package httphandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPreview(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		contains string
		excludes string
	}{
		{"bold", "**bold text**", "<strong>bold text</strong>", ""},
		{"link", "[click](https://example.com)", `<a href="https://example.com"`, ""},
		{"strikethrough", "~~deleted~~", "<del>deleted</del>", ""},
		{"heading id", "# Hello World", `<h1 id="hello-world">`, ""},
		{"script removed", `<script>alert("xss")</script>`, "", "<script>"},
		{"frontmatter dropped", "---\ndg-publish: true\n---\nBody", "<p>Body</p>", "dg-publish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderPreview([]byte(tt.in))
			if tt.contains != "" {
				assert.Contains(t, got, tt.contains)
			}
			if tt.excludes != "" {
				assert.NotContains(t, got, tt.excludes)
			}
		})
	}
}

func TestRenderPreview_EmptyBody(t *testing.T) {
	assert.Equal(t, "", renderPreview(nil))
	assert.Equal(t, "", renderPreview([]byte("---\ndg-publish: true\n---\n")))
}

func TestStripFrontmatter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"none", "# Title\n", "# Title\n"},
		{"block", "---\ndg-publish: true\n---\n# Title\n", "# Title\n"},
		{"empty block", "---\n---\nbody", "body"},
		{"unterminated", "---\nkey: v\nbody", "---\nkey: v\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(stripFrontmatter([]byte(tt.in))))
		})
	}
}
