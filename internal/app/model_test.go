package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/stickies/internal/config"
	"github.com/marcus/stickies/internal/journal"
	"github.com/marcus/stickies/internal/keymap"
	appmsg "github.com/marcus/stickies/internal/msg"
	"github.com/marcus/stickies/internal/notestore"
	"github.com/marcus/stickies/internal/registry"
)

func newTestModel(t *testing.T, opts ...registry.Option) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	reg := registry.New(notestore.New(dir), opts...)
	cfg := config.Default()
	cfg.Notes.Dir = dir
	m := New(reg, nil, cfg)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), dir
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyQuit  = tea.KeyMsg{Type: tea.KeyCtrlC}
)

// press feeds keys through Update and returns the model and the last command.
func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(k)
		m = updated.(Model)
	}
	return m, cmd
}

// toasts runs cmd and collects the toast messages it produces. Only use on
// commands that do not block (no cursor blink).
func toasts(cmd tea.Cmd) []appmsg.ToastMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case appmsg.ToastMsg:
		return []appmsg.ToastMsg{msg}
	case tea.BatchMsg:
		var out []appmsg.ToastMsg
		for _, c := range msg {
			out = append(out, toasts(c)...)
		}
		return out
	}
	return nil
}

func readNote(t *testing.T, dir, handle string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, handle))
	if err != nil {
		t.Fatalf("read %s: %v", handle, err)
	}
	return string(data)
}

func identities(m Model) []string {
	var out []string
	for _, n := range m.notes.Notes() {
		out = append(out, n.Identity())
	}
	return out
}

func TestCreate_OpensEditorAndSaves(t *testing.T) {
	m, dir := newTestModel(t)

	m, _ = press(t, m, runes("n"))
	if m.Mode() != ModeEdit {
		t.Fatalf("mode = %v, want ModeEdit", m.Mode())
	}
	if got := identities(m); len(got) != 1 || got[0] != "Note #1" {
		t.Fatalf("identities = %v", got)
	}

	m, cmd := press(t, m, runes("hello"), keySave)
	if got := readNote(t, dir, "Note_1.txt"); got != "hello" {
		t.Errorf("file = %q, want hello", got)
	}
	if ts := toasts(cmd); len(ts) != 1 || ts[0].IsError {
		t.Errorf("save toasts = %+v", ts)
	}
	if m.isDirty(m.editing) {
		t.Error("note still dirty after save")
	}
}

func TestEsc_KeepsEditsUntilQuit(t *testing.T) {
	m, dir := newTestModel(t)

	m, _ = press(t, m, runes("n"), runes("draft"), keyEsc)
	if m.Mode() != ModeList {
		t.Fatalf("mode = %v, want ModeList", m.Mode())
	}
	note := m.selectedNote()
	if note.Content() != "draft" {
		t.Errorf("content = %q, want draft", note.Content())
	}
	if got := readNote(t, dir, "Note_1.txt"); got != "" {
		t.Errorf("file written before save: %q", got)
	}
	if !m.isDirty(note) {
		t.Error("edited note should be dirty")
	}

	m, cmd := press(t, m, keyQuit)
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command is not tea.Quit")
	}
	if got := readNote(t, dir, "Note_1.txt"); got != "draft" {
		t.Errorf("file after quit = %q, want draft", got)
	}
	if m.View() != "" {
		t.Error("view should be empty once quitting")
	}
}

func TestDelete_ConfirmAndRenumber(t *testing.T) {
	m, dir := newTestModel(t)
	m, _ = press(t, m,
		runes("n"), keyEsc,
		runes("n"), keyEsc,
		runes("n"), keyEsc,
		runes("k"), // cursor on Note #2
	)

	m, _ = press(t, m, runes("X"))
	if m.Mode() != ModeConfirmDelete {
		t.Fatalf("mode = %v, want ModeConfirmDelete", m.Mode())
	}
	m, _ = press(t, m, runes("n"))
	if m.Mode() != ModeList || len(m.notes.Notes()) != 3 {
		t.Fatalf("cancel deleted a note: mode %v, notes %v", m.Mode(), identities(m))
	}

	m, cmd := press(t, m, runes("X"), runes("y"))
	if got := identities(m); len(got) != 2 || got[0] != "Note #1" || got[1] != "Note #2" {
		t.Errorf("identities after delete = %v", got)
	}
	for _, h := range []string{"Note_1.txt", "Note_2.txt"} {
		if _, err := os.Stat(filepath.Join(dir, h)); err != nil {
			t.Errorf("%s missing after renumbering: %v", h, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "Note_3.txt")); !os.IsNotExist(err) {
		t.Error("Note_3.txt should be gone after renumbering")
	}
	if ts := toasts(cmd); len(ts) != 1 || !strings.Contains(ts[0].Message, "Note #2") {
		t.Errorf("delete toasts = %+v", ts)
	}

	select {
	case n := <-m.removed:
		if n.State() != registry.Deleted {
			t.Errorf("removed note state = %v", n.State())
		}
		updated, next := m.Update(NoteRemovedMsg{Note: n})
		m = updated.(Model)
		if next == nil {
			t.Error("removal listener not re-armed")
		}
	default:
		t.Fatal("no removal notification queued")
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestRename(t *testing.T) {
	m, dir := newTestModel(t)
	m, _ = press(t, m, runes("n"), keyEsc, runes("r"))
	if _, err := os.Stat(filepath.Join(dir, "Note_1.txt")); err != nil {
		t.Fatalf("Note_1.txt not created: %v", err)
	}
	if m.Mode() != ModeRename {
		t.Fatalf("mode = %v, want ModeRename", m.Mode())
	}
	if m.rename.Value() != "Note #1" {
		t.Errorf("rename input = %q, want current identity", m.rename.Value())
	}

	m.rename.SetValue("")
	m, cmd := press(t, m, keyEnter)
	if m.Mode() != ModeRename {
		t.Error("invalid name should keep the input open")
	}
	if ts := toasts(cmd); len(ts) != 1 || !ts[0].IsError {
		t.Errorf("invalid rename toasts = %+v", ts)
	}

	m.rename.SetValue("Groceries")
	m, _ = press(t, m, keyEnter)
	if m.Mode() != ModeList {
		t.Fatalf("mode = %v, want ModeList", m.Mode())
	}
	if got := m.selectedNote().Identity(); got != "Groceries" {
		t.Errorf("identity = %q, want Groceries", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "Groceries.txt")); err != nil {
		t.Errorf("Groceries.txt missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Note_1.txt")); !os.IsNotExist(err) {
		t.Error("stale Note_1.txt left behind")
	}
}

func TestPicker_LoadsExisting(t *testing.T) {
	m, dir := newTestModel(t)
	if err := os.WriteFile(filepath.Join(dir, "Note_7.txt"), []byte("seven"), 0644); err != nil {
		t.Fatal(err)
	}

	m, _ = press(t, m, runes("o"))
	if m.Mode() != ModePicker {
		t.Fatalf("mode = %v, want ModePicker", m.Mode())
	}
	if len(m.picker) != 1 || m.picker[0].Identity != "Note #7" {
		t.Fatalf("picker = %+v", m.picker)
	}

	m, _ = press(t, m, keyEnter)
	if m.Mode() != ModeEdit {
		t.Fatalf("mode = %v, want ModeEdit", m.Mode())
	}
	if m.editor.Value() != "seven" {
		t.Errorf("editor = %q, want seven", m.editor.Value())
	}

	// Loading it a second time is refused.
	m, _ = press(t, m, keyEsc, runes("o"))
	m, cmd := press(t, m, keyEnter)
	if m.Mode() != ModePicker {
		t.Errorf("mode = %v, want to stay in picker", m.Mode())
	}
	if ts := toasts(cmd); len(ts) != 1 || !ts[0].IsError {
		t.Errorf("reload toasts = %+v", ts)
	}
	if len(m.notes.Notes()) != 1 {
		t.Errorf("notes = %v", identities(m))
	}
}

func TestPicker_RefreshesOnWatchEvent(t *testing.T) {
	m, dir := newTestModel(t)
	m, _ = press(t, m, runes("o"))
	if len(m.picker) != 0 {
		t.Fatalf("picker = %+v, want empty", m.picker)
	}

	if err := os.WriteFile(filepath.Join(dir, "Ideas.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	updated, _ := m.Update(WatchEventMsg{})
	m = updated.(Model)
	if len(m.picker) != 1 || m.picker[0].FileHandle != "Ideas.txt" {
		t.Errorf("picker after watch event = %+v", m.picker)
	}
}

func TestCreate_CapacityToast(t *testing.T) {
	m, _ := newTestModel(t, registry.WithMaxNotes(1))

	m, _ = press(t, m, runes("n"), keyEsc)
	m, cmd := press(t, m, runes("n"))
	if m.Mode() != ModeList {
		t.Errorf("mode = %v, want ModeList", m.Mode())
	}
	ts := toasts(cmd)
	if len(ts) != 1 || !ts[0].IsError {
		t.Fatalf("capacity toasts = %+v", ts)
	}
	if !strings.Contains(ts[0].Message, registry.ErrCapacityExceeded.Error()) {
		t.Errorf("toast = %q", ts[0].Message)
	}
}

type fakeHistory struct {
	entries []journal.Entry
	err     error
	asked   string
}

func (f *fakeHistory) History(identity string) ([]journal.Entry, error) {
	f.asked = identity
	return f.entries, f.err
}

func TestHistory(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, runes("n"), keyEsc)

	m, cmd := press(t, m, runes("h"))
	if m.Mode() != ModeList {
		t.Error("history without a journal should not change mode")
	}
	if ts := toasts(cmd); len(ts) != 1 || ts[0].Message != "Journal is disabled" {
		t.Errorf("toasts = %+v", ts)
	}

	h := &fakeHistory{entries: []journal.Entry{
		{Action: registry.ActionCreate, Identity: "Note #1", At: time.Now()},
	}}
	m.history = h
	m, _ = press(t, m, runes("h"))
	if m.Mode() != ModeHistory || h.asked != "Note #1" {
		t.Fatalf("mode = %v, asked %q", m.Mode(), h.asked)
	}
	if !strings.Contains(m.View(), "create") {
		t.Error("history view missing entry")
	}
	m, _ = press(t, m, keyEsc)
	if m.Mode() != ModeList {
		t.Errorf("mode = %v after esc", m.Mode())
	}

	h.err = errors.New("db locked")
	_, cmd = press(t, m, runes("h"))
	if ts := toasts(cmd); len(ts) != 1 || !ts[0].IsError {
		t.Errorf("error toasts = %+v", ts)
	}
}

func TestPreviewFirst(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, runes("n"), runes("# Title"), keyEsc)

	m.previewFirst = true
	m, _ = press(t, m, keyEnter)
	if m.Mode() != ModePreview {
		t.Fatalf("mode = %v, want ModePreview", m.Mode())
	}
	if m.View() == "" {
		t.Error("empty preview view")
	}
	m, _ = press(t, m, runes("i"))
	if m.Mode() != ModeEdit {
		t.Errorf("mode = %v, want ModeEdit", m.Mode())
	}
}

func TestSession(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, runes("n"), keyEsc, runes("n"), keyEsc, runes("k"))

	handles, selected := m.Session()
	if len(handles) != 2 || handles[0] != "Note_1.txt" || handles[1] != "Note_2.txt" {
		t.Errorf("handles = %v", handles)
	}
	if selected != "Note_1.txt" {
		t.Errorf("selected = %q, want Note_1.txt", selected)
	}
}

func TestKeymapOverride(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(notestore.New(dir))
	km := keymap.NewRegistry()
	km.ApplyOverrides(map[string]string{"create": "a"})
	m := New(reg, km, config.Default())

	m, _ = press(t, m, runes("n"))
	if len(reg.Notes()) != 0 {
		t.Error("default key still creates after override")
	}
	m, _ = press(t, m, runes("a"))
	if len(reg.Notes()) != 1 || m.Mode() != ModeEdit {
		t.Errorf("override key did not create: notes %d, mode %v", len(reg.Notes()), m.Mode())
	}
}

func TestView_ListsNotes(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), "No notes") {
		t.Error("empty list hint missing")
	}
	m, _ = press(t, m, runes("n"), runes("buy milk"), keyEsc)

	view := m.View()
	for _, want := range []string{"Note #1", "buy milk", "1/20 notes"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderHintLineTruncated(t *testing.T) {
	hints := []footerHint{{"n", "new"}, {"enter", "open"}, {"q", "quit"}}
	full := renderHintLineTruncated(hints, 200)
	for _, h := range hints {
		if !strings.Contains(full, h.label) {
			t.Errorf("full line missing %q", h.label)
		}
	}
	short := renderHintLineTruncated(hints, 10)
	if strings.Contains(short, "quit") {
		t.Errorf("narrow line should drop trailing hints: %q", short)
	}
	if renderHintLineTruncated(hints, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestView_DialogsOverlayList(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, runes("n"), keyEsc, runes("X"))

	if view := m.View(); !strings.Contains(view, "Delete Note #1?") {
		t.Errorf("confirm dialog missing:\n%s", view)
	}
	m, _ = press(t, m, keyEsc, runes("r"))
	if view := m.View(); !strings.Contains(view, "Rename Note #1") {
		t.Errorf("rename dialog missing:\n%s", view)
	}
}

func TestResizeList(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, runes(">"))
	if m.listWidth != defaultListWidth+listStep {
		t.Errorf("listWidth = %d, want %d", m.listWidth, defaultListWidth+listStep)
	}
	for range 10 {
		m, _ = press(t, m, runes(">"))
	}
	if m.listWidth != 50 {
		t.Errorf("listWidth = %d, want half the screen", m.listWidth)
	}
	for range 20 {
		m, _ = press(t, m, runes("<"))
	}
	if m.listWidth != minListWidth {
		t.Errorf("listWidth = %d, want %d", m.listWidth, minListWidth)
	}
}
