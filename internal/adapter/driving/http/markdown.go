package httphandler

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in notes is passed through goldmark and cleaned by the UGC policy.
var (
	previewMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	previewPolicy = bluemonday.UGCPolicy()
)

// renderPreview turns a compiled note into sanitized HTML. The frontmatter
// block is dropped; it only configures the site build.
func renderPreview(compiled []byte) string {
	body := stripFrontmatter(compiled)
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	var buf bytes.Buffer
	if err := previewMarkdown.Convert(body, &buf); err != nil {
		return string(previewPolicy.SanitizeBytes(body))
	}
	return previewPolicy.Sanitize(buf.String())
}

var fence = []byte("---\n")

// stripFrontmatter drops a leading --- delimited block. An unterminated
// block is left in place.
func stripFrontmatter(src []byte) []byte {
	if !bytes.HasPrefix(src, fence) {
		return src
	}
	rest := src[len(fence):]
	if bytes.HasPrefix(rest, fence) {
		return rest[len(fence):]
	}
	if i := bytes.Index(rest, []byte("\n---\n")); i >= 0 {
		return rest[i+len("\n---\n"):]
	}
	return src
}
