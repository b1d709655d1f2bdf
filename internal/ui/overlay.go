// Package ui holds layout helpers shared by the host UI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/stickies/internal/styles"
)

// Dimmed is applied to whatever sits behind a dialog.
var Dimmed = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

// Dialog renders a boxed dialog with a title, a body wrapped to width and a
// muted hint line.
func Dialog(title, body, hint string, width int) string {
	var b strings.Builder
	b.WriteString(styles.PanelHeader.Render(title))
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(max(width, 10)).Render(body))
	}
	if hint != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render(hint))
	}
	return styles.ModalBox.Render(b.String())
}

// Overlay centers box over background, which is stripped of color and
// dimmed. The result is exactly height rows.
func Overlay(background, box string, width, height int) string {
	bg := strings.Split(background, "\n")
	fg := strings.Split(box, "\n")

	boxWidth := 0
	for _, l := range fg {
		boxWidth = max(boxWidth, ansi.StringWidth(l))
	}
	left := max((width-boxWidth)/2, 0)
	top := max((height-len(fg))/2, 0)

	rows := make([]string, height)
	for y := range rows {
		line := ""
		if y < len(bg) {
			line = ansi.Strip(bg[y])
		}
		i := y - top
		if i < 0 || i >= len(fg) {
			rows[y] = Dimmed.Render(line)
			continue
		}
		rows[y] = splice(line, fg[i], left, boxWidth)
	}
	return strings.Join(rows, "\n")
}

// splice writes over into plain at column x, padding plain when it is short.
func splice(plain, over string, x, overWidth int) string {
	var b strings.Builder
	head := ansi.Truncate(plain, x, "")
	b.WriteString(Dimmed.Render(head))
	if w := ansi.StringWidth(head); w < x {
		b.WriteString(strings.Repeat(" ", x-w))
	}
	b.WriteString(over)
	if pad := overWidth - ansi.StringWidth(over); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	if end := ansi.StringWidth(plain); end > x+overWidth {
		b.WriteString(Dimmed.Render(ansi.Cut(plain, x+overWidth, end)))
	}
	return b.String()
}
