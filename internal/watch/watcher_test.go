package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsNoteFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/notes/Note_1.txt", true},
		{"/notes/Groceries.txt", true},
		{"/notes/note_index.txt", false},
		{"/notes/.tmp-Note_1.txt-123", false},
		{"/notes/journal.db", false},
	}
	for _, tt := range tests {
		if got := isNoteFile(tt.path); got != tt.want {
			t.Errorf("isNoteFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_ReportsNoteWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := New(ctx, dir, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Index writes alone must not produce events.
	if err := os.WriteFile(filepath.Join(dir, "note_index.txt"), []byte("1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Note_1.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.Handle != "Note_1.txt" {
			t.Errorf("event handle = %q, want Note_1.txt", ev.Handle)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for note write")
	}
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := New(ctx, t.TempDir(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
