package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/marcus/stickies/internal/notestore"
)

// identityPrefix is the canonical identity form, "Note #<N>".
const identityPrefix = "Note #"

// canonicalStem matches the sanitized form of a canonical identity.
var canonicalStem = regexp.MustCompile(`^Note_([0-9]+)$`)

// State tracks a note's durability.
type State int

const (
	// Unsaved notes exist only in memory.
	Unsaved State = iota
	// Saved notes have a backing file matching their identity.
	Saved
	// Deleted is terminal; the registry rejects further operations.
	Deleted
)

// String returns the display name for the state.
func (s State) String() string {
	switch s {
	case Saved:
		return "saved"
	case Deleted:
		return "deleted"
	default:
		return "unsaved"
	}
}

// Note is a single sticky note. Fields are owned by the Registry; hosts read
// them through the accessors and mutate them through Registry methods.
type Note struct {
	identity string
	content  string
	state    State
}

// Identity returns the note's display name.
func (n *Note) Identity() string { return n.identity }

// Content returns the in-memory body.
func (n *Note) Content() string { return n.content }

// State returns the note's lifecycle state.
func (n *Note) State() State { return n.state }

// FileHandle returns the filename derived from the current identity.
func (n *Note) FileHandle() string { return notestore.Sanitize(n.identity) }

// Identity returns the canonical identity for position n.
func Identity(n int) string {
	return fmt.Sprintf("%s%d", identityPrefix, n)
}

// Number parses the N out of a canonical "Note #N" identity.
func Number(identity string) (int, bool) {
	rest, ok := strings.CutPrefix(identity, identityPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// DeriveIdentity turns a file handle back into an identity. Canonical stems
// ("Note_7") map back to "Note #7"; anything else is used verbatim.
func DeriveIdentity(handle string) string {
	stem := notestore.Stem(handle)
	if m := canonicalStem.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && strconv.Itoa(n) == m[1] {
			return Identity(n)
		}
	}
	return stem
}
