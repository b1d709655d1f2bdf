// Package watch reports changes to the note files in a directory.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marcus/stickies/internal/notestore"
)

// DefaultDebounce coalesces bursts such as a reindex renaming every note.
const DefaultDebounce = 150 * time.Millisecond

// EventType is the kind of change seen.
type EventType int

const (
	EventChanged EventType = iota // created or written
	EventRemoved                  // removed or renamed away
)

// Event is a debounced change notification. Handle names the last note
// file touched in the burst.
type Event struct {
	Type   EventType
	Handle string
}

// New starts watching dir for note file changes. The directory is created if
// missing. The returned channel closes when ctx is done or the underlying
// watcher fails.
func New(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger) (<-chan Event, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan Event, 16)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		var lastEvent fsnotify.Event

		// Protect against sending to closed channel from timer callback
		var closed bool
		var mu sync.Mutex

		defer func() {
			mu.Lock()
			closed = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			close(events)
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isNoteFile(event.Name) {
					continue
				}

				mu.Lock()
				lastEvent = event
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					mu.Lock()
					defer mu.Unlock()
					if closed {
						return
					}

					ev := Event{Type: EventChanged, Handle: filepath.Base(lastEvent.Name)}
					if lastEvent.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
						ev.Type = EventRemoved
					}
					select {
					case events <- ev:
					default:
						// Channel full, drop event
					}
				})
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("notes watcher error", "dir", dir, "err", err)
			}
		}
	}()

	return events, nil
}

func isNoteFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, notestore.Ext) &&
		name != notestore.IndexFile &&
		!strings.HasPrefix(name, ".")
}
