package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Notes   NotesConfig     `json:"notes"`
	Journal JournalConfig   `json:"journal"`
	Watch   saveWatchConfig `json:"watch"`
	Keymap  KeymapConfig    `json:"keymap"`
	UI      UIConfig        `json:"ui"`
}

type saveWatchConfig struct {
	Enabled  bool   `json:"enabled"`
	Debounce string `json:"debounce,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Notes:   cfg.Notes,
		Journal: cfg.Journal,
		Watch: saveWatchConfig{
			Enabled:  cfg.Watch.Enabled,
			Debounce: cfg.Watch.Debounce.String(),
		},
		Keymap: cfg.Keymap,
		UI:     cfg.UI,
	}
}

// Save writes the config to ~/.config/stickies/config.json. Top-level keys
// Save does not manage are kept as they are on disk.
func Save(cfg *Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	merged := make(map[string]json.RawMessage)
	if data, err := os.ReadFile(path); err == nil {
		// An unreadable existing file is replaced rather than blocking the save.
		_ = json.Unmarshal(data, &merged)
	}
	if merged == nil {
		merged = make(map[string]json.RawMessage)
	}

	managed, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(managed, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
