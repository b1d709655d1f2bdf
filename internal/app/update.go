package app

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/stickies/internal/keymap"
	appmsg "github.com/marcus/stickies/internal/msg"
	"github.com/marcus/stickies/internal/registry"
	"github.com/marcus/stickies/internal/state"
)

// Update handles all messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeEditor()
		return m, nil

	case TickMsg:
		m.ClearToast()
		return m, tickCmd()

	case appmsg.ToastMsg:
		d := msg.Duration
		if d <= 0 {
			d = appmsg.ToastDuration
		}
		m.ShowToast(msg.Message, d, msg.IsError)
		return m, nil

	case ErrorMsg:
		m.logger.Warn("ui error", "err", msg.Err)
		m.ShowToast("Error: "+msg.Err.Error(), 2*appmsg.ToastDuration, true)
		return m, nil

	case NoteRemovedMsg:
		m.handleRemoved(msg.Note)
		return m, waitForRemoval(m.removed)

	case WatchEventMsg:
		m.logger.Debug("notes dir changed", "handle", msg.Event.Handle, "type", msg.Event.Type)
		if m.mode == ModePicker {
			if err := m.refreshPicker(); err != nil {
				return m, tea.Batch(appmsg.ShowError(err), waitForWatch(m.watchCh))
			}
		}
		return m, waitForWatch(m.watchCh)

	case watchClosedMsg:
		m.logger.Debug("watcher closed")
		m.watchCh = nil
		return m, nil
	}

	return m.updateWidgets(msg)
}

// updateWidgets forwards msg to the focused input widget.
func (m Model) updateWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case ModeEdit:
		m.editor, cmd = m.editor.Update(msg)
	case ModeRename:
		m.rename, cmd = m.rename.Update(msg)
	}
	return m, cmd
}

// context returns the keymap context for the active mode.
func (m Model) context() string {
	switch m.mode {
	case ModeEdit:
		return keymap.ContextEditor
	case ModePreview:
		return keymap.ContextPreview
	case ModeRename:
		return keymap.ContextRename
	case ModeConfirmDelete:
		return keymap.ContextConfirm
	case ModePicker:
		return keymap.ContextPicker
	case ModeHistory:
		return keymap.ContextHistory
	default:
		return keymap.ContextList
	}
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id, ok := m.keymap.Lookup(msg.String(), m.context())
	if !ok {
		return m.updateWidgets(msg)
	}

	switch id {
	case "quit":
		return m.quit()
	case "toggle-footer":
		m.showFooter = !m.showFooter
		m.resizeEditor()
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListCommand(id)
	case ModeEdit:
		return m.handleEditCommand(id)
	case ModePreview:
		return m.handlePreviewCommand(id)
	case ModeRename:
		return m.handleRenameCommand(id)
	case ModeConfirmDelete:
		return m.handleConfirmCommand(id)
	case ModePicker:
		return m.handlePickerCommand(id)
	case ModeHistory:
		if id == "back" {
			m.mode = ModeList
			m.historyEntries = nil
		}
	}
	return m, nil
}

func (m Model) handleListCommand(id string) (tea.Model, tea.Cmd) {
	switch id {
	case "create":
		return m.createNote()
	case "open-existing":
		if err := m.refreshPicker(); err != nil {
			return m, appmsg.ShowError(err)
		}
		m.mode = ModePicker
		return m, nil
	case "cursor-down":
		if m.cursor < len(m.notes.Notes())-1 {
			m.cursor++
		}
		return m, nil
	case "cursor-up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "cursor-bottom":
		m.cursor = len(m.notes.Notes()) - 1
		m.clampCursor()
		return m, nil
	case "list-narrower", "list-wider":
		return m.resizeList(id == "list-wider")
	case "toggle-preview":
		m.previewFirst = !m.previewFirst
		if err := state.SetPreviewMode(m.previewFirst); err != nil {
			m.logger.Warn("save preview mode failed", "err", err)
		}
		label := "Notes open in editor"
		if m.previewFirst {
			label = "Notes open in preview"
		}
		return m, appmsg.ShowToast(label, appmsg.ToastDuration)
	}

	note := m.selectedNote()
	if note == nil {
		return m, nil
	}
	switch id {
	case "edit":
		if m.previewFirst {
			m.openPreview(note)
			return m, nil
		}
		return m, m.openEditor(note)
	case "rename":
		m.renaming = note
		m.rename.SetValue(note.Identity())
		m.rename.CursorEnd()
		m.mode = ModeRename
		return m, m.rename.Focus()
	case "delete":
		m.deleting = note
		m.mode = ModeConfirmDelete
		return m, nil
	case "yank":
		return m, yank(note.Identity(), note.Content())
	case "save":
		return m.saveNote(note)
	case "history":
		return m.openHistory(note)
	}
	return m, nil
}

func (m Model) handleEditCommand(id string) (tea.Model, tea.Cmd) {
	switch id {
	case "back":
		return m.closeEditor()
	case "save":
		return m.saveNote(m.editing)
	case "yank":
		return m, yank(m.editing.Identity(), m.editor.Value())
	}
	return m, nil
}

func (m Model) handlePreviewCommand(id string) (tea.Model, tea.Cmd) {
	switch id {
	case "back":
		return m.closeEditor()
	case "edit":
		m.mode = ModeEdit
		m.resizeEditor()
		return m, m.editor.Focus()
	case "save":
		return m.saveNote(m.editing)
	case "yank":
		return m, yank(m.editing.Identity(), m.editing.Content())
	}
	return m, nil
}

func (m Model) handleRenameCommand(id string) (tea.Model, tea.Cmd) {
	switch id {
	case "confirm":
		name := strings.TrimSpace(m.rename.Value())
		old := m.renaming.Identity()
		if err := m.notes.Rename(m.renaming, name); err != nil {
			// Stay in the input so the name can be fixed.
			return m, appmsg.ShowError(err)
		}
		m.endRename()
		if name == old {
			return m, nil
		}
		return m, appmsg.ShowToast(fmt.Sprintf("Renamed %s to %s", old, name), appmsg.ToastDuration)
	case "back":
		m.endRename()
	}
	return m, nil
}

func (m *Model) endRename() {
	m.rename.Blur()
	m.rename.SetValue("")
	m.renaming = nil
	m.mode = ModeList
}

func (m Model) handleConfirmCommand(id string) (tea.Model, tea.Cmd) {
	switch id {
	case "confirm":
		note := m.deleting
		m.deleting = nil
		m.mode = ModeList
		if note == nil {
			return m, nil
		}
		identity := note.Identity()
		err := m.notes.Delete(note)
		delete(m.saved, note)
		m.clampCursor()
		cmds := []tea.Cmd{appmsg.ShowToast("Deleted "+identity, appmsg.ToastDuration)}
		if err != nil {
			cmds = append(cmds, appmsg.ShowError(err))
		}
		return m, tea.Batch(cmds...)
	case "back":
		m.deleting = nil
		m.mode = ModeList
	}
	return m, nil
}

func (m Model) handlePickerCommand(id string) (tea.Model, tea.Cmd) {
	switch id {
	case "cursor-down":
		if m.pickerCursor < len(m.picker)-1 {
			m.pickerCursor++
		}
	case "cursor-up":
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case "back":
		m.mode = ModeList
		m.picker = nil
	case "confirm":
		if m.pickerCursor >= len(m.picker) {
			return m, nil
		}
		p := m.picker[m.pickerCursor]
		note, err := m.notes.Load(p.FileHandle)
		if err != nil {
			return m, appmsg.ShowError(err)
		}
		m.markSaved(note)
		m.cursor = len(m.notes.Notes()) - 1
		m.picker = nil
		m.mode = ModeList
		toast := appmsg.ShowToast("Opened "+note.Identity(), appmsg.ToastDuration)
		if m.previewFirst {
			m.openPreview(note)
			return m, toast
		}
		return m, tea.Batch(m.openEditor(note), toast)
	}
	return m, nil
}

// createNote allocates the next numbered note and opens it for editing.
func (m Model) createNote() (tea.Model, tea.Cmd) {
	note, err := m.notes.Create()
	if note == nil {
		return m, appmsg.ShowError(err)
	}
	if note.State() == registry.Saved {
		m.markSaved(note)
	}
	m.cursor = len(m.notes.Notes()) - 1
	cmd := m.openEditor(note)
	if err != nil {
		return m, tea.Batch(cmd, appmsg.ShowError(err))
	}
	return m, cmd
}

// saveNote writes note to disk, taking the editor buffer if it is open.
func (m Model) saveNote(note *registry.Note) (tea.Model, tea.Cmd) {
	if note == nil {
		return m, nil
	}
	if note == m.editing {
		if err := m.notes.SetContent(note, m.editor.Value()); err != nil {
			return m, appmsg.ShowError(err)
		}
	}
	if err := m.notes.Save(note); err != nil {
		return m, appmsg.ShowError(err)
	}
	m.markSaved(note)
	return m, appmsg.ShowToast("Saved "+note.Identity(), appmsg.ToastDuration)
}

func (m *Model) openEditor(note *registry.Note) tea.Cmd {
	m.editing = note
	m.editor.SetValue(note.Content())
	m.mode = ModeEdit
	m.resizeEditor()
	return m.editor.Focus()
}

func (m *Model) openPreview(note *registry.Note) {
	m.editing = note
	m.editor.SetValue(note.Content())
	m.editor.Blur()
	m.mode = ModePreview
}

// closeEditor keeps the buffer in memory and returns to the list. Nothing is
// written until the note is saved.
func (m Model) closeEditor() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.editing != nil {
		if err := m.notes.SetContent(m.editing, m.editor.Value()); err != nil {
			cmd = appmsg.ShowError(err)
		}
	}
	m.editor.Blur()
	m.editing = nil
	m.mode = ModeList
	return m, cmd
}

func (m *Model) refreshPicker() error {
	listing, err := m.notes.ListPersisted()
	if err != nil {
		return err
	}
	m.picker = listing
	if m.pickerCursor >= len(m.picker) {
		m.pickerCursor = len(m.picker) - 1
	}
	if m.pickerCursor < 0 {
		m.pickerCursor = 0
	}
	return nil
}

func (m Model) openHistory(note *registry.Note) (tea.Model, tea.Cmd) {
	if m.history == nil {
		return m, appmsg.ShowToast("Journal is disabled", appmsg.ToastDuration)
	}
	entries, err := m.history.History(note.Identity())
	if err != nil {
		return m, appmsg.ShowError(err)
	}
	m.historyFor = note.Identity()
	m.historyEntries = entries
	m.mode = ModeHistory
	return m, nil
}

// handleRemoved drops UI references to a note the registry removed.
func (m *Model) handleRemoved(note *registry.Note) {
	if note == nil {
		return
	}
	delete(m.saved, note)
	if m.editing == note {
		m.editor.Blur()
		m.editing = nil
		if m.mode == ModeEdit || m.mode == ModePreview {
			m.mode = ModeList
		}
	}
	if m.renaming == note {
		m.endRename()
	}
	m.clampCursor()
}

// quit writes every dirty note, then exits.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.editing != nil {
		_ = m.notes.SetContent(m.editing, m.editor.Value())
	}
	for _, n := range m.notes.Notes() {
		if !m.isDirty(n) {
			continue
		}
		if err := m.notes.Save(n); err != nil {
			m.logger.Warn("save on quit failed", "note", n.Identity(), "err", err)
			continue
		}
		m.markSaved(n)
	}
	m.quitting = true
	return m, tea.Quit
}

// yank copies content to the system clipboard.
func yank(identity, content string) tea.Cmd {
	if content == "" {
		return appmsg.ShowToast("Nothing to copy", appmsg.ToastDuration)
	}
	if err := clipboard.WriteAll(content); err != nil {
		return appmsg.ShowToast("Copy failed: "+err.Error(), appmsg.ToastDuration)
	}
	return appmsg.ShowToast("Copied "+identity, appmsg.ToastDuration)
}

// resizeList moves the pane divider by listStep columns and remembers it.
func (m Model) resizeList(wider bool) (tea.Model, tea.Cmd) {
	w := m.listWidth - listStep
	if wider {
		w = m.listWidth + listStep
	}
	w = max(w, minListWidth)
	if m.width > 0 {
		w = min(w, max(m.width/2, minListWidth))
	}
	if w == m.listWidth {
		return m, nil
	}
	m.listWidth = w
	m.resizeEditor()
	if err := state.SetListWidth(w); err != nil {
		m.logger.Warn("save list width failed", "err", err)
	}
	return m, nil
}

// resizeEditor fits the textarea to the main pane.
func (m *Model) resizeEditor() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.editor.SetWidth(max(m.mainWidth()-4, 1))
	m.editor.SetHeight(max(m.contentHeight()-1, 1))
}

// mainWidth is the width of the right-hand pane including its border.
func (m Model) mainWidth() int {
	return max(m.width-m.listWidth, 10)
}

// contentHeight is the number of rows inside the pane borders.
func (m Model) contentHeight() int {
	h := m.height - 1 - 2 // header, borders
	if m.showFooter {
		h--
	}
	return max(h, 1)
}
