package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/stickies"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	Notes   rawNotesConfig   `json:"notes"`
	Journal rawJournalConfig `json:"journal"`
	Watch   rawWatchConfig   `json:"watch"`
	Keymap  KeymapConfig     `json:"keymap"`
	UI      rawUIConfig      `json:"ui"`
}

type rawNotesConfig struct {
	Dir      string `json:"dir"`
	MaxNotes *int   `json:"maxNotes"`
}

type rawJournalConfig struct {
	Enabled *bool  `json:"enabled"`
	Path    string `json:"path"`
}

type rawWatchConfig struct {
	Enabled  *bool  `json:"enabled"`
	Debounce string `json:"debounce"`
}

type rawUIConfig struct {
	ShowFooter      *bool `json:"showFooter"`
	MarkdownPreview *bool `json:"markdownPreview"`
	RestoreSession  *bool `json:"restoreSession"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/stickies/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			var raw rawConfig
			if err := json.Unmarshal(data, &raw); err != nil {
				return nil, err
			}
			mergeConfig(cfg, &raw)
		}
	}

	// Expand paths
	cfg.Notes.Dir = ExpandPath(cfg.Notes.Dir)
	cfg.Journal.Path = ExpandPath(cfg.Journal.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Notes
	if raw.Notes.Dir != "" {
		cfg.Notes.Dir = raw.Notes.Dir
	}
	if raw.Notes.MaxNotes != nil {
		cfg.Notes.MaxNotes = *raw.Notes.MaxNotes
	}

	// Journal
	if raw.Journal.Enabled != nil {
		cfg.Journal.Enabled = *raw.Journal.Enabled
	}
	if raw.Journal.Path != "" {
		cfg.Journal.Path = raw.Journal.Path
	}

	// Watch
	if raw.Watch.Enabled != nil {
		cfg.Watch.Enabled = *raw.Watch.Enabled
	}
	if raw.Watch.Debounce != "" {
		if d, err := time.ParseDuration(raw.Watch.Debounce); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	// Keymap
	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.MarkdownPreview != nil {
		cfg.UI.MarkdownPreview = *raw.UI.MarkdownPreview
	}
	if raw.UI.RestoreSession != nil {
		cfg.UI.RestoreSession = *raw.UI.RestoreSession
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// testConfigPath overrides ConfigPath in tests.
var testConfigPath string

// SetTestConfigPath points ConfigPath at path. Test use only.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the default ConfigPath.
func ResetTestConfigPath() { testConfigPath = "" }

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// Dir returns the directory holding the config and state files.
func Dir() string {
	return filepath.Dir(ConfigPath())
}
