package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/stickies/internal/app"
	"github.com/marcus/stickies/internal/config"
	"github.com/marcus/stickies/internal/journal"
	"github.com/marcus/stickies/internal/keymap"
	"github.com/marcus/stickies/internal/notestore"
	"github.com/marcus/stickies/internal/registry"
	"github.com/marcus/stickies/internal/state"
	"github.com/marcus/stickies/internal/watch"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	notesDir     = flag.String("dir", "", "notes directory (overrides config)")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	logPath      = flag.String("log", "", "write logs to this file")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	// Handle version flag
	if *versionFlag || *shortVersion {
		fmt.Printf("stickies version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	logger, closeLog, err := openLogger(*logPath, *debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Load configuration
	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *notesDir != "" {
		cfg.Notes.Dir = config.ExpandPath(*notesDir)
	}

	// Load persistent state (ignore errors - state is optional)
	if err := state.Init(); err != nil {
		logger.Warn("state load failed", "err", err)
	}

	opts := []registry.Option{
		registry.WithMaxNotes(cfg.Notes.MaxNotes),
		registry.WithLogger(logger),
	}
	var appOpts []app.Option

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, "")
		if err != nil {
			logger.Warn("journal disabled", "path", cfg.Journal.Path, "err", err)
		} else {
			defer j.Close()
			opts = append(opts, registry.WithRecorder(j))
			appOpts = append(appOpts, app.WithHistory(j))
		}
	}

	store := notestore.New(cfg.Notes.Dir)
	notes := registry.New(store, opts...)

	if cfg.UI.RestoreSession {
		restoreSession(notes, state.GetOpenNotes(), logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Watch.Enabled {
		events, err := watch.New(ctx, cfg.Notes.Dir, cfg.Watch.Debounce, logger)
		if err != nil {
			logger.Warn("watcher disabled", "dir", cfg.Notes.Dir, "err", err)
		} else {
			appOpts = append(appOpts, app.WithWatch(events))
		}
	}

	// Create keymap registry and apply user overrides
	km := keymap.NewRegistry()
	for _, id := range km.ApplyOverrides(cfg.Keymap.Overrides) {
		logger.Warn("unknown command in keymap overrides", "command", id)
	}

	// Create and run application
	appOpts = append(appOpts, app.WithLogger(logger))
	model := app.New(notes, km, cfg, appOpts...)
	p := tea.NewProgram(model, tea.WithAltScreen())

	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		handles, selected := m.Session()
		if serr := state.SetSession(handles, selected); serr != nil {
			logger.Warn("save session failed", "err", serr)
		}
	}
	if cerr := notes.Close(); cerr != nil {
		logger.Warn("flush counter failed", "err", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// openLogger returns a text logger writing to path, or a discarding logger
// when path is empty.
func openLogger(path string, debugEnabled bool) (*slog.Logger, func(), error) {
	logLevel := slog.LevelInfo
	if debugEnabled {
		logLevel = slog.LevelDebug
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(config.ExpandPath(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: logLevel,
	}))
	return logger, func() { f.Close() }, nil
}

// loadConfig loads the config file, writing the defaults on first run.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(config.ConfigPath()); errors.Is(statErr, os.ErrNotExist) {
		if err := config.Save(cfg); err != nil {
			logger.Warn("write default config failed", "err", err)
		}
	}
	return cfg, nil
}

// restoreSession reopens the notes that were open at the last exit and
// returns how many were loaded. Missing files are skipped.
func restoreSession(notes *registry.Registry, handles []string, logger *slog.Logger) int {
	loaded := 0
	for _, h := range handles {
		if _, err := notes.Load(h); err != nil {
			logger.Info("skip session note", "handle", h, "err", err)
			continue
		}
		loaded++
	}
	return loaded
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	// Try to get version from Go build info
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	// Check module version
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	// Fall back to VCS info
	var revision string
	var dirty bool

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision != "" {
		ver := "devel+" + revision
		if len(ver) > 20 {
			ver = ver[:20]
		}
		if dirty {
			ver += "+dirty"
		}
		return ver
	}

	return "devel"
}

func init() {
	// Customize usage output
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stickies [options]\n\n")
		fmt.Fprintf(os.Stderr, "Sticky notes in the terminal, one text file per note.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
