package registry

import "time"

// Action is the kind of lifecycle change reported to a Recorder.
type Action string

const (
	ActionCreate   Action = "create"
	ActionLoad     Action = "load"
	ActionRename   Action = "rename"
	ActionSave     Action = "save"
	ActionDelete   Action = "delete"
	ActionRenumber Action = "renumber" // rename issued by a reindex pass
)

// Event describes one lifecycle change.
type Event struct {
	Action   Action
	Identity string
	Previous string // old identity for rename/renumber
	Counter  int    // counter value when the event was recorded
	Bytes    int    // content length for saves
	At       time.Time
}

// Recorder receives lifecycle events. Errors are logged and never fail the
// operation that produced the event.
type Recorder interface {
	Record(Event) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event) error

// Record calls f(ev).
func (f RecorderFunc) Record(ev Event) error { return f(ev) }
