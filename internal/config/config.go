package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Notes   NotesConfig   `json:"notes"`
	Journal JournalConfig `json:"journal"`
	Watch   WatchConfig   `json:"watch"`
	Keymap  KeymapConfig  `json:"keymap"`
	UI      UIConfig      `json:"ui"`
}

// NotesConfig configures where notes live and how many may be open.
type NotesConfig struct {
	Dir      string `json:"dir"`      // notes directory (supports ~ expansion)
	MaxNotes int    `json:"maxNotes"` // live note limit, default 20
}

// JournalConfig configures the SQLite action log.
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"` // database file (supports ~ expansion)
}

// WatchConfig configures the notes directory watcher.
type WatchConfig struct {
	Enabled  bool          `json:"enabled"`
	Debounce time.Duration `json:"debounce"`
}

// KeymapConfig holds key binding overrides, command ID -> key.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter      bool `json:"showFooter"`
	MarkdownPreview bool `json:"markdownPreview"` // open notes in rendered preview
	RestoreSession  bool `json:"restoreSession"`  // reopen notes that were open at exit
}

const (
	defaultMaxNotes = 20
	defaultDebounce = 150 * time.Millisecond
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Notes: NotesConfig{
			Dir:      "~/.local/share/stickies/notes",
			MaxNotes: defaultMaxNotes,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "~/.config/stickies/journal.db",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: defaultDebounce,
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			ShowFooter:     true,
			RestoreSession: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Notes.MaxNotes <= 0 {
		c.Notes.MaxNotes = defaultMaxNotes
	}
	if c.Notes.Dir == "" {
		c.Notes.Dir = ExpandPath(Default().Notes.Dir)
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = defaultDebounce
	}
	if c.Journal.Path == "" {
		c.Journal.Enabled = false
	}
	return nil
}
