package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/stickies/internal/registry"
	"github.com/marcus/stickies/internal/watch"
)

// Message types for tea.Cmd
type (
	// TickMsg is sent on each clock tick.
	TickMsg time.Time

	// NoteRemovedMsg carries a removal notification from the registry.
	NoteRemovedMsg struct {
		Note *registry.Note
	}

	// WatchEventMsg reports a change in the notes directory.
	WatchEventMsg struct {
		Event watch.Event
	}

	// watchClosedMsg is sent once the watcher channel closes.
	watchClosedMsg struct{}

	// ErrorMsg represents an error condition.
	ErrorMsg struct {
		Err error
	}
)

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ReportError returns a command to report an error.
func ReportError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}

// waitForRemoval blocks until the registry reports a removed note.
func waitForRemoval(ch <-chan *registry.Note) tea.Cmd {
	return func() tea.Msg {
		return NoteRemovedMsg{Note: <-ch}
	}
}

// waitForWatch blocks until the watcher reports a change.
func waitForWatch(ch <-chan watch.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return WatchEventMsg{Event: ev}
	}
}
