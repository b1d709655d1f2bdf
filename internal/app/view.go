package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/stickies/internal/keymap"
	"github.com/marcus/stickies/internal/styles"
	"github.com/marcus/stickies/internal/ui"
)

// View renders the entire application UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	paneHeight := m.contentHeight() + 2
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderList(m.listWidth, paneHeight),
		m.renderMain(m.mainWidth(), paneHeight),
	)
	switch m.mode {
	case ModeRename:
		body = ui.Overlay(body, m.renderRename(), m.width, paneHeight)
	case ModeConfirmDelete:
		body = ui.Overlay(body, m.renderConfirmDelete(), m.width, paneHeight)
	}

	parts := []string{m.renderHeader(), body}
	if m.showFooter {
		parts = append(parts, m.renderFooter())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := styles.Title.Render("stickies")
	count := styles.Muted.Render(fmt.Sprintf("%d/%d notes", len(m.notes.Notes()), m.notes.MaxNotes()))
	dir := ansi.Truncate(m.cfg.Notes.Dir, max(m.width-lipgloss.Width(title)-lipgloss.Width(count)-4, 0), "…")
	return title + "  " + count + "  " + styles.Muted.Render(dir)
}

func (m Model) renderList(width, height int) string {
	style := styles.PanelInactive
	if m.mode == ModeList {
		style = styles.PanelActive
	}
	inner := max(width-4, 1)
	rows := max(height-3, 1) // borders, header

	var b strings.Builder
	b.WriteString(styles.PanelHeader.Render("Notes"))

	notes := m.notes.Notes()
	if len(notes) == 0 {
		hint := "No notes"
		if keys := m.keymap.KeysFor("create", keymap.ContextList); len(keys) > 0 {
			hint = fmt.Sprintf("No notes. %s creates one.", keys[0])
		}
		b.WriteString("\n" + styles.Muted.Render(ansi.Truncate(hint, inner, "…")))
	}

	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(notes) && i < start+rows; i++ {
		n := notes[i]
		label := n.Identity()
		marker := " "
		if m.isDirty(n) {
			marker = styles.DirtyMarker.Render("*")
		}
		label = ansi.Truncate(label, max(inner-2, 1), "…")
		line := marker + " " + label
		if i == m.cursor {
			line = styles.ListItemSelected.Render(marker + " " + label)
		} else {
			line = styles.ListItemNormal.Render(line)
		}
		b.WriteString("\n" + line)
	}

	return style.Width(width - 2).Height(height - 2).MaxHeight(height).Render(b.String())
}

func (m Model) renderMain(width, height int) string {
	style := styles.PanelActive
	if m.mode == ModeList {
		style = styles.PanelInactive
	}
	inner := max(width-4, 1)
	rows := max(height-2, 1)

	var content string
	switch m.mode {
	case ModeEdit:
		content = m.noteTitle() + "\n" + m.editor.View()
	case ModePreview:
		content = m.renderPreview(inner, rows-1)
	case ModePicker:
		content = m.renderPicker(inner, rows)
	case ModeHistory:
		content = m.renderHistory(inner, rows)
	default:
		content = m.renderSelected(inner, rows)
	}
	return style.Width(width - 2).Height(height - 2).MaxHeight(height).Render(content)
}

func (m Model) noteTitle() string {
	if m.editing == nil {
		return ""
	}
	title := styles.PanelHeader.Render(m.editing.Identity())
	if m.isDirty(m.editing) {
		title += " " + styles.DirtyMarker.Render("modified")
	}
	return title
}

// renderSelected shows the raw text of the note under the list cursor.
func (m Model) renderSelected(width, rows int) string {
	note := m.selectedNote()
	if note == nil {
		return styles.Muted.Render("Nothing selected")
	}
	out := []string{styles.PanelHeader.Render(note.Identity())}
	lines := strings.Split(note.Content(), "\n")
	for i := 0; i < len(lines) && len(out) < rows; i++ {
		out = append(out, ansi.Truncate(lines[i], width, "…"))
	}
	return strings.Join(out, "\n")
}

func (m Model) renderPreview(width, rows int) string {
	if m.editing == nil {
		return ""
	}
	rendered, err := m.markdown.Render(m.editing.Content(), width)
	if err != nil {
		m.logger.Debug("markdown render failed", "err", err)
	}
	lines := strings.Split(rendered, "\n")
	if len(lines) > rows {
		lines = lines[:rows]
	}
	return m.noteTitle() + "\n" + strings.Join(lines, "\n")
}

func (m Model) renderRename() string {
	title := "Rename"
	if m.renaming != nil {
		title += " " + m.renaming.Identity()
	}
	return ui.Dialog(title, m.rename.View(), "enter to rename, esc to cancel", 44)
}

func (m Model) renderConfirmDelete() string {
	if m.deleting == nil {
		return ""
	}
	return ui.Dialog("Delete "+m.deleting.Identity()+"?",
		"The file is removed and the remaining notes are renumbered.",
		"y to delete, n to keep", 44)
}

func (m Model) renderPicker(width, rows int) string {
	out := []string{styles.PanelHeader.Render("Open existing note")}
	if len(m.picker) == 0 {
		out = append(out, styles.Muted.Render("No note files in "+m.cfg.Notes.Dir))
		return strings.Join(out, "\n")
	}
	visible := max(rows-1, 1)
	start := 0
	if m.pickerCursor >= visible {
		start = m.pickerCursor - visible + 1
	}
	for i := start; i < len(m.picker) && i < start+visible; i++ {
		p := m.picker[i]
		label := p.Identity
		if p.Identity != p.FileHandle {
			label += styles.Muted.Render("  " + p.FileHandle)
		}
		if m.notes.IsOpen(p.FileHandle) {
			label += styles.Muted.Render("  (open)")
		}
		label = ansi.Truncate(label, max(width-2, 1), "…")
		if i == m.pickerCursor {
			out = append(out, styles.ListCursor.Render("> ")+label)
		} else {
			out = append(out, "  "+label)
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) renderHistory(width, rows int) string {
	out := []string{styles.PanelHeader.Render("History of " + m.historyFor)}
	if len(m.historyEntries) == 0 {
		out = append(out, styles.Muted.Render("No journal entries"))
	}
	// Newest entries are the most useful when the list is cut.
	entries := m.historyEntries
	if len(entries) > rows-1 {
		entries = entries[len(entries)-(rows-1):]
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %s", e.At.Local().Format("2006-01-02 15:04:05"), e.Action, e.Identity)
		if e.Previous != "" {
			line += " <- " + e.Previous
		}
		if e.Bytes > 0 {
			line += fmt.Sprintf(" (%d bytes)", e.Bytes)
		}
		out = append(out, ansi.Truncate(line, width, "…"))
	}
	return strings.Join(out, "\n")
}

func (m Model) renderFooter() string {
	var status string
	if m.statusMsg != "" {
		toastStyle := styles.ToastSuccess
		if m.statusIsError {
			toastStyle = styles.ToastError
		}
		status = toastStyle.Render(m.statusMsg)
	}

	available := m.width - lipgloss.Width(status) - 2
	hints := renderHintLineTruncated(m.footerHints(), available)
	spacing := max(m.width-lipgloss.Width(hints)-lipgloss.Width(status), 0)
	footer := hints + strings.Repeat(" ", spacing) + status

	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(footer)
}

type footerHint struct {
	keys  string
	label string
}

// footerCommands lists the hinted commands per context, most important first.
var footerCommands = map[string][]struct{ id, label string }{
	keymap.ContextList: {
		{"create", "new"}, {"edit", "open"}, {"open-existing", "load"}, {"rename", "rename"},
		{"delete", "delete"}, {"history", "history"}, {"list-wider", "wider"}, {"quit", "quit"},
	},
	keymap.ContextEditor:  {{"back", "done"}, {"save", "save"}, {"yank", "copy"}},
	keymap.ContextPreview: {{"edit", "edit"}, {"back", "done"}, {"yank", "copy"}},
	keymap.ContextRename:  {{"confirm", "rename"}, {"back", "cancel"}},
	keymap.ContextConfirm: {{"confirm", "delete"}, {"back", "keep"}},
	keymap.ContextPicker:  {{"confirm", "open"}, {"back", "cancel"}},
	keymap.ContextHistory: {{"back", "back"}},
}

func (m Model) footerHints() []footerHint {
	ctx := m.context()
	var hints []footerHint
	for _, c := range footerCommands[ctx] {
		keys := m.keymap.KeysFor(c.id, ctx)
		if len(keys) == 0 {
			keys = m.keymap.KeysFor(c.id, keymap.ContextGlobal)
		}
		if len(keys) == 0 {
			continue
		}
		hints = append(hints, footerHint{keys: keys[0], label: c.label})
	}
	return hints
}

// renderHintLineTruncated renders hints but stops adding when maxWidth is exceeded.
func renderHintLineTruncated(hints []footerHint, maxWidth int) string {
	if len(hints) == 0 || maxWidth <= 0 {
		return ""
	}
	var result string
	for i, hint := range hints {
		part := fmt.Sprintf("%s %s", styles.KeyHint.Render(hint.keys), hint.label)
		candidate := part
		if i > 0 {
			candidate = result + "  " + part
		}
		if lipgloss.Width(candidate) > maxWidth {
			break
		}
		result = candidate
	}
	return result
}
