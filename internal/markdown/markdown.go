// Package markdown converts entry text to HTML for display.
//
// Goldmark's default renderer escapes raw HTML in the source, so the output
// is safe to hand to the template layer as-is.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Render converts markdown text to HTML.
func Render(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
