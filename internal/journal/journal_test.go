package journal

import (
	"path/filepath"
	"testing"

	"github.com/marcus/stickies/internal/notestore"
	"github.com/marcus/stickies/internal/registry"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "db", "journal.db"), "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)

	events := []registry.Event{
		{Action: registry.ActionCreate, Identity: "Note #1", Counter: 1},
		{Action: registry.ActionSave, Identity: "Note #1", Counter: 1, Bytes: 12},
		{Action: registry.ActionRename, Identity: "Groceries", Previous: "Note #1", Counter: 1},
	}
	for _, ev := range events {
		if err := j.Record(ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Action != registry.ActionRename || got[0].Previous != "Note #1" {
		t.Errorf("newest entry = %+v", got[0])
	}
	if got[1].Bytes != 12 {
		t.Errorf("save entry bytes = %d, want 12", got[1].Bytes)
	}
	if got[0].At.IsZero() {
		t.Error("timestamp not stored")
	}
}

func TestHistory_FollowsRenames(t *testing.T) {
	j := openTestJournal(t)
	j.Record(registry.Event{Action: registry.ActionCreate, Identity: "Note #2"})
	j.Record(registry.Event{Action: registry.ActionCreate, Identity: "Note #3"})
	j.Record(registry.Event{Action: registry.ActionRenumber, Identity: "Note #2", Previous: "Note #3"})

	got, err := j.History("Note #3")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("History = %d entries, want 2", len(got))
	}
	if got[0].Action != registry.ActionCreate || got[1].Action != registry.ActionRenumber {
		t.Errorf("History order = %s, %s", got[0].Action, got[1].Action)
	}
}

func TestJournalAsRecorder(t *testing.T) {
	j := openTestJournal(t)
	r := registry.New(notestore.New(t.TempDir()), registry.WithRecorder(j))

	a, _ := r.Create()
	r.Create()
	if err := r.Delete(a); err != nil {
		t.Fatal(err)
	}

	got, err := j.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	// create, create, delete, renumber, save
	if len(got) != 5 {
		t.Fatalf("journal has %d entries, want 5", len(got))
	}
	if got[0].Action != registry.ActionSave || got[1].Action != registry.ActionRenumber {
		t.Errorf("latest entries = %s, %s", got[0].Action, got[1].Action)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, "")
	if err != nil {
		t.Fatal(err)
	}
	j.Record(registry.Event{Action: registry.ActionCreate, Identity: "Note #1"})
	j.Close()

	j, err = Open(path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	got, _ := j.Recent(10)
	if len(got) != 1 {
		t.Errorf("entries after reopen = %d, want 1", len(got))
	}
}
