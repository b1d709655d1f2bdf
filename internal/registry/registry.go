// Package registry owns the set of live notes. It hands out sequential
// "Note #N" identities, keeps them dense after deletions and persists the
// counter through a NoteStore after every mutation.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/marcus/stickies/internal/notestore"
)

// DefaultMaxNotes is the number of notes that may be live at once.
const DefaultMaxNotes = 20

var (
	// ErrCapacityExceeded is returned by Create and Load at the note limit.
	ErrCapacityExceeded = errors.New("notes full: delete a note to create new ones")
	// ErrUnknownNote is returned for notes that were deleted or never registered.
	ErrUnknownNote = errors.New("note is not registered")
	// ErrAlreadyOpen is returned when a file handle is already used by a live note.
	ErrAlreadyOpen = errors.New("note is already open")
	// ErrInvalidIdentity is returned by Rename for unusable names.
	ErrInvalidIdentity = errors.New("invalid note name")
	// ErrNameTaken is returned by Rename when the target file belongs to
	// another note, open or not.
	ErrNameTaken = errors.New("a note with that name already exists")
)

// Store is the subset of notestore.Store the registry needs.
type Store interface {
	Write(handle, content string) error
	Read(handle string) (string, error)
	Exists(handle string) bool
	Rename(oldHandle, newHandle string) error
	Delete(handle string) error
	ListNoteFiles() ([]string, error)
	LoadCounter() int
	SaveCounter(n int) error
}

// Persisted is a note file found on disk, for "open existing note" pickers.
type Persisted struct {
	Identity   string
	FileHandle string
}

// Registry is the in-memory note list and counter. Every method takes the
// mutex, so it is safe to share; removal listeners run without it.
type Registry struct {
	mu        sync.Mutex
	store     Store
	notes     []*Note
	counter   int
	maxNotes  int
	logger    *slog.Logger
	recorder  Recorder
	listeners []func(*Note)
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxNotes overrides DefaultMaxNotes. Values below 1 are ignored.
func WithMaxNotes(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxNotes = n
		}
	}
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder attaches an action log.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) {
		r.recorder = rec
	}
}

// New creates a registry over store and loads the persisted counter.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		maxNotes: DefaultMaxNotes,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.counter = store.LoadCounter()
	return r
}

// OnNoteRemoved registers fn to run after a note is deleted. Callbacks run
// without the registry lock held.
func (r *Registry) OnNoteRemoved(fn func(*Note)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Notes returns the live notes in registry order.
func (r *Registry) Notes() []*Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notes)
}

// Counter returns the current counter value.
func (r *Registry) Counter() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

// MaxNotes returns the live note limit.
func (r *Registry) MaxNotes() int { return r.maxNotes }

// Lookup finds a live note by identity.
func (r *Registry) Lookup(identity string) (*Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if n.identity == identity {
			return n, true
		}
	}
	return nil, false
}

// Create appends a fresh note with the next identity, persists the counter
// and writes an empty file. If a file with that name already exists but is
// not open, its content is adopted instead of truncated.
//
// When the counter or the initial write cannot be persisted the note is
// still returned alongside an error wrapping notestore.ErrIO.
func (r *Registry) Create() (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notes) >= r.maxNotes {
		return nil, fmt.Errorf("%w (limit %d)", ErrCapacityExceeded, r.maxNotes)
	}

	if r.handleInUse(notestore.Sanitize(Identity(r.counter+1)), nil) {
		r.logger.Debug("identity collision on create, reindexing", "counter", r.counter)
		if err := r.reindex(); err != nil {
			return nil, fmt.Errorf("reindex before create: %w", err)
		}
	}

	r.counter++
	note := &Note{identity: Identity(r.counter), state: Unsaved}
	handle := note.FileHandle()

	adopted := false
	if content, err := r.store.Read(handle); err == nil {
		note.content = content
		note.state = Saved
		adopted = true
		r.logger.Info("adopted existing note file", "handle", handle)
	}

	r.notes = append(r.notes, note)
	r.record(Event{Action: ActionCreate, Identity: note.identity, Counter: r.counter})

	var errs []error
	if err := r.store.SaveCounter(r.counter); err != nil {
		r.logger.Warn("save counter failed", "counter", r.counter, "err", err)
		errs = append(errs, err)
	}
	if !adopted {
		if err := r.store.Write(handle, ""); err != nil {
			r.logger.Warn("initial note write failed", "handle", handle, "err", err)
			errs = append(errs, err)
		} else {
			note.state = Saved
		}
	}
	return note, errors.Join(errs...)
}

// Load opens an existing note file. The counter is not touched: a loaded
// note does not consume a number.
func (r *Registry) Load(handle string) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notes) >= r.maxNotes {
		return nil, fmt.Errorf("%w (limit %d)", ErrCapacityExceeded, r.maxNotes)
	}

	if handle == notestore.IndexFile || strings.HasPrefix(handle, ".") || !strings.HasSuffix(handle, notestore.Ext) {
		return nil, fmt.Errorf("%w: %q is not a note file", notestore.ErrInvalidHandle, handle)
	}

	identity := DeriveIdentity(handle)
	canonical := notestore.Sanitize(identity)
	if r.handleInUse(handle, nil) || r.handleInUse(canonical, nil) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, identity)
	}

	content, err := r.store.Read(handle)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", handle, err)
	}

	// Files named outside the sanitized form ("My list.txt") are moved to
	// the name future saves will use.
	if canonical != handle {
		if r.store.Exists(canonical) {
			return nil, fmt.Errorf("%w: %s conflicts with %s", notestore.ErrInvalidHandle, handle, canonical)
		}
		if err := r.store.Rename(handle, canonical); err != nil {
			return nil, fmt.Errorf("load %s: %w", handle, err)
		}
	}

	note := &Note{identity: identity, content: content, state: Saved}
	r.notes = append(r.notes, note)
	r.record(Event{Action: ActionLoad, Identity: identity, Counter: r.counter})
	return note, nil
}

// Rename gives note a new identity and moves its backing file. On failure
// the identity is left unchanged.
func (r *Registry) Rename(note *Note, newIdentity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(note) < 0 {
		return ErrUnknownNote
	}
	if err := validIdentity(newIdentity); err != nil {
		return err
	}
	if newIdentity == note.identity {
		return nil
	}
	newHandle := notestore.Sanitize(newIdentity)
	if newHandle != note.FileHandle() && (r.handleInUse(newHandle, note) || r.store.Exists(newHandle)) {
		return fmt.Errorf("%w: %s", ErrNameTaken, newIdentity)
	}
	return r.rename(note, newIdentity, ActionRename)
}

// SetContent replaces the in-memory body. Nothing is written until Save.
func (r *Registry) SetContent(note *Note, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(note) < 0 {
		return ErrUnknownNote
	}
	note.content = content
	return nil
}

// Save writes the note's content to its current file.
func (r *Registry) Save(note *Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(note) < 0 {
		return ErrUnknownNote
	}
	return r.save(note)
}

// Delete removes note and its file, then renumbers the survivors. Removal
// from memory always succeeds; a failed file delete is only logged. The
// returned error reports a failed renumbering pass.
func (r *Registry) Delete(note *Note) error {
	r.mu.Lock()

	idx := r.indexOf(note)
	if idx < 0 {
		r.mu.Unlock()
		return ErrUnknownNote
	}

	if err := r.store.Delete(note.FileHandle()); err != nil {
		r.logger.Warn("delete note file failed", "handle", note.FileHandle(), "err", err)
	}
	r.notes = slices.Delete(r.notes, idx, idx+1)
	note.state = Deleted
	r.record(Event{Action: ActionDelete, Identity: note.identity, Counter: r.counter})

	err := r.reindex()
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(note)
	}
	return err
}

// ListPersisted returns the note files on disk. Canonical notes come first
// in numeric order, then everything else by name.
func (r *Registry) ListPersisted() ([]Persisted, error) {
	handles, err := r.store.ListNoteFiles()
	if err != nil {
		return nil, err
	}

	out := make([]Persisted, 0, len(handles))
	for _, h := range handles {
		out = append(out, Persisted{Identity: DeriveIdentity(h), FileHandle: h})
	}
	slices.SortFunc(out, comparePersisted)
	return out, nil
}

func comparePersisted(a, b Persisted) int {
	an, aok := Number(a.Identity)
	bn, bok := Number(b.Identity)
	switch {
	case aok && bok:
		return cmp.Compare(an, bn)
	case aok:
		return -1
	case bok:
		return 1
	}
	return cmp.Compare(a.Identity, b.Identity)
}

// IsOpen reports whether handle belongs to a live note.
func (r *Registry) IsOpen(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handleInUse(handle, nil)
}

// Close flushes the counter. The registry stays usable.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.SaveCounter(r.counter)
}

// renumbering is a note whose identity changes during reindex, with the
// staging handle its file sits under between the two phases.
type renumbering struct {
	note   *Note
	pos    int
	staged string
}

// reindex renumbers every live note to its position. Files that change name
// are first moved to free staging handles, then to their final names, so no
// rename lands on a file another live note still owns. A failure stops the
// pass; the counter then holds the number of notes already in place.
func (r *Registry) reindex() error {
	var moves []renumbering
	for i, n := range r.notes {
		if n.identity != Identity(i+1) {
			moves = append(moves, renumbering{note: n, pos: i})
		}
	}

	passErr := r.renumber(moves)
	if passErr == nil {
		r.counter = len(r.notes)
	} else {
		r.logger.Warn("reindex stopped early", "renumbered", r.counter, "live", len(r.notes), "err", passErr)
	}
	if err := r.store.SaveCounter(r.counter); err != nil {
		r.logger.Warn("save counter failed", "counter", r.counter, "err", err)
		return errors.Join(passErr, err)
	}
	return passErr
}

func (r *Registry) renumber(moves []renumbering) error {
	taken := make(map[string]bool)
	for k := range moves {
		mv := &moves[k]
		mv.staged = r.stagingHandle(taken)
		if err := r.store.Rename(mv.note.FileHandle(), mv.staged); err != nil {
			r.counter = moves[0].pos
			r.unstage(moves[:k])
			return fmt.Errorf("renumber %s: %w", mv.note.identity, err)
		}
	}

	for k, mv := range moves {
		want := Identity(mv.pos + 1)
		if err := r.store.Rename(mv.staged, notestore.Sanitize(want)); err != nil {
			r.counter = mv.pos
			r.unstage(moves[k:])
			return fmt.Errorf("renumber %s: %w", mv.note.identity, err)
		}
		previous := mv.note.identity
		mv.note.identity = want
		r.record(Event{Action: ActionRenumber, Identity: want, Previous: previous, Counter: r.counter})
		if err := r.save(mv.note); err != nil {
			r.counter = mv.pos + 1
			r.unstage(moves[k+1:])
			return fmt.Errorf("renumber %s: %w", previous, err)
		}
	}
	return nil
}

// stagingHandle returns a handle that is not on disk, not used by a live
// note and not already handed out in this pass.
func (r *Registry) stagingHandle(taken map[string]bool) string {
	for i := 1; ; i++ {
		h := fmt.Sprintf("renumbering_%d%s", i, notestore.Ext)
		if !taken[h] && !r.handleInUse(h, nil) && !r.store.Exists(h) {
			taken[h] = true
			return h
		}
	}
}

// unstage moves staged files back under their notes' identities. When that
// name has been claimed by a renumbered note meanwhile, the note takes the
// staging name instead so its file and identity still agree.
func (r *Registry) unstage(moves []renumbering) {
	for _, mv := range moves {
		err := r.store.Rename(mv.staged, mv.note.FileHandle())
		if err == nil {
			continue
		}
		r.logger.Warn("restore staged note failed", "note", mv.note.identity, "staged", mv.staged, "err", err)
		previous := mv.note.identity
		mv.note.identity = notestore.Stem(mv.staged)
		r.record(Event{Action: ActionRenumber, Identity: mv.note.identity, Previous: previous, Counter: r.counter})
	}
}

func (r *Registry) rename(note *Note, newIdentity string, action Action) error {
	oldIdentity := note.identity
	if err := r.store.Rename(note.FileHandle(), notestore.Sanitize(newIdentity)); err != nil {
		return err
	}
	note.identity = newIdentity
	r.record(Event{Action: action, Identity: newIdentity, Previous: oldIdentity, Counter: r.counter})
	return nil
}

func (r *Registry) save(note *Note) error {
	if err := r.store.Write(note.FileHandle(), note.content); err != nil {
		return err
	}
	note.state = Saved
	r.record(Event{Action: ActionSave, Identity: note.identity, Counter: r.counter, Bytes: len(note.content)})
	return nil
}

func (r *Registry) indexOf(note *Note) int {
	if note == nil {
		return -1
	}
	return slices.Index(r.notes, note)
}

// handleInUse reports whether a live note other than except maps to handle.
func (r *Registry) handleInUse(handle string, except *Note) bool {
	for _, n := range r.notes {
		if n != except && n.FileHandle() == handle {
			return true
		}
	}
	return false
}

func validIdentity(identity string) error {
	switch {
	case strings.TrimSpace(identity) == "":
		return fmt.Errorf("%w: empty", ErrInvalidIdentity)
	case strings.ContainsAny(identity, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidIdentity, identity)
	case notestore.Sanitize(identity) == notestore.IndexFile:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidIdentity, identity)
	case strings.HasPrefix(identity, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidIdentity, identity)
	}
	return nil
}

func (r *Registry) record(ev Event) {
	if r.recorder == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := r.recorder.Record(ev); err != nil {
		r.logger.Warn("journal record failed", "action", ev.Action, "identity", ev.Identity, "err", err)
	}
}
