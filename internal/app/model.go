package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/stickies/internal/config"
	"github.com/marcus/stickies/internal/journal"
	"github.com/marcus/stickies/internal/keymap"
	"github.com/marcus/stickies/internal/registry"
	"github.com/marcus/stickies/internal/state"
	"github.com/marcus/stickies/internal/styles"
	"github.com/marcus/stickies/internal/watch"
)

const (
	defaultListWidth = 28
	minListWidth     = 16
	listStep         = 4
)

// Mode is the screen the model is showing.
type Mode int

const (
	ModeList Mode = iota
	ModeEdit
	ModePreview
	ModeRename
	ModeConfirmDelete
	ModePicker
	ModeHistory
)

// HistorySource returns the journal entries for a note identity.
type HistorySource interface {
	History(identity string) ([]journal.Entry, error)
}

// Model is the root Bubble Tea model for the stickies application.
type Model struct {
	// Configuration
	cfg    *config.Config
	logger *slog.Logger

	// Core
	notes   *registry.Registry
	keymap  *keymap.Registry
	history HistorySource
	watchCh <-chan watch.Event
	removed chan *registry.Note

	// Persisted content hash per note, for dirty markers
	saved map[*registry.Note]uint64

	// UI state
	width, height int
	mode          Mode
	cursor        int
	listWidth     int
	showFooter    bool
	previewFirst  bool
	quitting      bool

	// Editor
	editing  *registry.Note
	editor   textarea.Model
	renaming *registry.Note
	rename   textinput.Model
	deleting *registry.Note

	// Open-existing picker
	picker       []registry.Persisted
	pickerCursor int

	// Journal history for the selected note
	historyFor     string
	historyEntries []journal.Entry

	// Rendered preview
	markdown *markdownRenderer

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool
}

// Option configures a Model.
type Option func(*Model)

// WithHistory enables the history view backed by h.
func WithHistory(h HistorySource) Option {
	return func(m *Model) { m.history = h }
}

// WithWatch feeds directory change events into the model.
func WithWatch(ch <-chan watch.Event) Option {
	return func(m *Model) { m.watchCh = ch }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a new application model around an already populated registry.
func New(notes *registry.Registry, km *keymap.Registry, cfg *config.Config, opts ...Option) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	if km == nil {
		km = keymap.NewRegistry()
	}

	m := Model{
		cfg:          cfg,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		notes:        notes,
		keymap:       km,
		removed:      make(chan *registry.Note, notes.MaxNotes()+1),
		saved:        make(map[*registry.Note]uint64),
		mode:         ModeList,
		listWidth:    defaultListWidth,
		showFooter:   cfg.UI.ShowFooter,
		previewFirst: cfg.UI.MarkdownPreview || state.GetPreviewMode(),
		editor:       newEditor(),
		rename:       newRenameInput(),
		markdown:     newMarkdownRenderer(styles.MarkdownTheme),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if w := state.GetListWidth(); w >= minListWidth {
		m.listWidth = w
	}

	removed := m.removed
	notes.OnNoteRemoved(func(n *registry.Note) {
		select {
		case removed <- n:
		default:
		}
	})

	for _, n := range notes.Notes() {
		m.markSaved(n)
	}
	if sel := state.GetSelected(); sel != "" {
		for i, n := range notes.Notes() {
			if n.FileHandle() == sel {
				m.cursor = i
			}
		}
	}
	return m
}

func newEditor() textarea.Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	ta.Placeholder = "Write something..."
	ta.FocusedStyle = textarea.Style{
		Base:        lipgloss.NewStyle(),
		CursorLine:  lipgloss.NewStyle(),
		EndOfBuffer: styles.Muted,
		Placeholder: styles.Muted,
		Prompt:      lipgloss.NewStyle(),
		Text:        styles.Body,
	}
	ta.BlurredStyle = ta.FocusedStyle
	// alt+c copies the buffer
	ta.KeyMap.CapitalizeWordForward = key.NewBinding(key.WithDisabled())
	ta.Blur()
	return ta
}

func newRenameInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Note name"
	ti.CharLimit = 120
	ti.Width = 40
	ti.Prompt = "> "
	return ti
}

// Init initializes the model and returns initial commands.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(),
		waitForRemoval(m.removed),
	}
	if cmd := waitForWatch(m.watchCh); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Mode returns the active screen.
func (m Model) Mode() Mode { return m.mode }

// Session returns the handles of the open notes and the one under the cursor,
// in the shape state.SetSession takes.
func (m Model) Session() ([]string, string) {
	notes := m.notes.Notes()
	handles := make([]string, 0, len(notes))
	for _, n := range notes {
		handles = append(handles, n.FileHandle())
	}
	selected := ""
	if m.cursor >= 0 && m.cursor < len(notes) {
		selected = notes[m.cursor].FileHandle()
	}
	return handles, selected
}

// selectedNote returns the note under the list cursor, or nil.
func (m Model) selectedNote() *registry.Note {
	notes := m.notes.Notes()
	if m.cursor < 0 || m.cursor >= len(notes) {
		return nil
	}
	return notes[m.cursor]
}

func (m *Model) clampCursor() {
	n := len(m.notes.Notes())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func contentHash(s string) uint64 { return xxhash.Sum64String(s) }

func (m Model) markSaved(n *registry.Note) {
	m.saved[n] = contentHash(n.Content())
}

// isDirty reports whether n holds edits that have not been written.
func (m Model) isDirty(n *registry.Note) bool {
	content := n.Content()
	if n == m.editing {
		content = m.editor.Value()
	}
	h, ok := m.saved[n]
	return !ok || h != contentHash(content)
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(message string, duration time.Duration, isError bool) {
	m.statusMsg = message
	m.statusExpiry = time.Now().Add(duration)
	m.statusIsError = isError
}

// ClearToast clears expired status messages.
func (m *Model) ClearToast() {
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}
