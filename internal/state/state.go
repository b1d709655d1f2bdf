package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// State holds persistent UI state between runs.
type State struct {
	// File handles of the notes that were open at exit, in registry order.
	OpenNotes []string `json:"openNotes,omitempty"`

	// Selected is the handle of the note that had focus.
	Selected string `json:"selected,omitempty"`

	// List pane width in columns (0 = use default)
	ListWidth int `json:"listWidth,omitempty"`

	PreviewMode bool `json:"previewMode,omitempty"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "stickies"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	path = filepath.Join(dir, "state.json")
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, current)
}

// Save writes state to disk.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetOpenNotes returns the handles that were open when state was saved.
func GetOpenNotes() []string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return nil
	}
	return slices.Clone(current.OpenNotes)
}

// SetSession records the open notes and the focused one, then saves.
func SetSession(handles []string, selected string) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.OpenNotes = slices.Clone(handles)
	current.Selected = selected
	mu.Unlock()
	return Save()
}

// GetSelected returns the handle that had focus at exit.
func GetSelected() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return ""
	}
	return current.Selected
}

// GetListWidth returns the saved list pane width.
// Returns 0 if no preference is saved (use default).
func GetListWidth() int {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return 0
	}
	return current.ListWidth
}

// SetListWidth saves the list pane width.
func SetListWidth(width int) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.ListWidth = width
	mu.Unlock()
	return Save()
}

// GetPreviewMode returns whether notes open in rendered preview.
func GetPreviewMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return false
	}
	return current.PreviewMode
}

// SetPreviewMode saves the preview preference.
func SetPreviewMode(on bool) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.PreviewMode = on
	mu.Unlock()
	return Save()
}
