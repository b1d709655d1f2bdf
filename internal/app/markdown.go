package app

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders note bodies with glamour, rebuilding the
// renderer only when the wrap width changes.
type markdownRenderer struct {
	theme    string
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(theme string) *markdownRenderer {
	return &markdownRenderer{theme: theme}
}

// Render returns content as styled terminal output wrapped to width.
// When glamour fails the raw content is returned with the error.
func (r *markdownRenderer) Render(content string, width int) (string, error) {
	if width < 20 {
		width = 20
	}
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.theme),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content, err
		}
		r.renderer = tr
		r.width = width
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content, err
	}
	return strings.Trim(out, "\n"), nil
}
