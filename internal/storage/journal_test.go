package storage

import (
	"testing"
	"time"

	"github.com/maruel/ksid"
)

func TestBatchJournal(t *testing.T) {
	dir := t.TempDir()
	journal, err := NewBatchJournal(dir)
	if err != nil {
		t.Fatalf("NewBatchJournal() error = %v", err)
	}

	if journal.Seen("drinks-2025-06-01.ndjson") {
		t.Error("Seen() = true on empty journal")
	}

	b := Batch{
		ID:      ksid.NewID(),
		Source:  "drinks-2025-06-01.ndjson",
		Total:   3,
		Invalid: 1,
		Stored:  2,
		Created: time.Now().UTC(),
	}
	if err := journal.Append(b); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if !journal.Seen("drinks-2025-06-01.ndjson") {
		t.Error("Seen() = false for a recorded source")
	}
	if journal.Seen("other.ndjson") {
		t.Error("Seen() = true for an unknown source")
	}

	// The journal survives a reload.
	reloaded, err := NewBatchJournal(dir)
	if err != nil {
		t.Fatalf("NewBatchJournal() reload error = %v", err)
	}
	all := reloaded.All()
	if len(all) != 1 {
		t.Fatalf("All() = %d batches after reload, want 1", len(all))
	}
	if all[0].Source != b.Source || all[0].Stored != 2 {
		t.Errorf("reloaded batch = %+v", all[0])
	}
}

func TestMirrorStore(t *testing.T) {
	mirror, err := NewMirrorStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMirrorStore() error = %v", err)
	}

	drinks := []Drink{
		{ID: "1", Name: "Margarita", Category: "Cocktail"},
		{ID: "2", Name: "Mojito", Category: "Cocktail"},
	}
	ref, err := mirror.Archive(drinks)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if ref.IsZero() {
		t.Fatal("Archive() returned zero ref")
	}

	got, err := mirror.Open(ref)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "Margarita" || got[1].Name != "Mojito" {
		t.Errorf("Open() = %+v", got)
	}

	// An empty batch still produces an artifact.
	ref, err = mirror.Archive(nil)
	if err != nil {
		t.Fatalf("Archive(nil) error = %v", err)
	}
	got, err = mirror.Open(ref)
	if err != nil {
		t.Fatalf("Open() empty error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Open() empty = %+v", got)
	}
}
