// Package journal keeps an SQLite action log of note lifecycle events.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marcus/stickies/internal/registry"
)

// Entry is one row of the action log.
type Entry struct {
	ID       int64
	Action   registry.Action
	Identity string
	Previous string
	Counter  int
	Bytes    int
	At       time.Time
}

// Journal writes registry events to an action_log table.
type Journal struct {
	db        *sql.DB
	sessionID string
}

// Open opens (or creates) the journal database at path.
func Open(path, sessionID string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if sessionID == "" {
		sessionID = "stickies"
	}
	j := &Journal{db: db, sessionID: sessionID}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

func (j *Journal) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS action_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    action TEXT NOT NULL,
    identity TEXT NOT NULL,
    previous TEXT NOT NULL DEFAULT '',
    counter INTEGER NOT NULL,
    bytes INTEGER NOT NULL DEFAULT 0,
    timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_log_identity ON action_log(identity);
`
	_, err := j.db.Exec(schema)
	return err
}

// Record implements registry.Recorder.
func (j *Journal) Record(ev registry.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT INTO action_log (session_id, action, identity, previous, counter, bytes, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, j.sessionID, string(ev.Action), ev.Identity, ev.Previous, ev.Counter, ev.Bytes,
		at.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return j.query(`
		SELECT id, action, identity, previous, counter, bytes, timestamp
		FROM action_log ORDER BY id DESC LIMIT ?`, limit)
}

// History returns every entry that touched identity, oldest first. Renames
// are matched on both sides.
func (j *Journal) History(identity string) ([]Entry, error) {
	return j.query(`
		SELECT id, action, identity, previous, counter, bytes, timestamp
		FROM action_log WHERE identity = ? OR previous = ? ORDER BY id ASC`, identity, identity)
}

func (j *Journal) query(query string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query action log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action, ts string
		if err := rows.Scan(&e.ID, &action, &e.Identity, &e.Previous, &e.Counter, &e.Bytes, &ts); err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		e.Action = registry.Action(action)
		e.At, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
