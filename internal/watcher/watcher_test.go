package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coffeeverse/coffeeverse/internal/pipeline"
	"github.com/coffeeverse/coffeeverse/internal/storage"
)

func newTestPipeline(t *testing.T) (*pipeline.Processor, *storage.DrinkStore, *storage.BatchJournal) {
	t.Helper()
	dir := t.TempDir()
	drinks, err := storage.NewDrinkStore(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatal(err)
	}
	journal, err := storage.NewBatchJournal(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatal(err)
	}
	mirror, err := storage.NewMirrorStore(filepath.Join(dir, "mirror"))
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.New(drinks, mirror, journal, nil), drinks, journal
}

const validLine = `{"idDrink":"11007","strDrink":"Margarita","strCategory":"Ordinary Drink","strAlcoholic":"Alcoholic","strInstructions":"Shake."}`

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScanPreexistingFiles(t *testing.T) {
	rawDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(rawDir, "drinks.ndjson"), []byte(validLine+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Non-batch files are ignored.
	if err := os.WriteFile(filepath.Join(rawDir, "notes.txt"), []byte("skip me"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, drinks, journal := newTestPipeline(t)
	w := New(rawDir, p, journal)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	waitFor(t, func() bool { return drinks.Len() == 1 })
	if !journal.Seen("drinks.ndjson") {
		t.Error("batch not journaled")
	}
	if journal.Seen("notes.txt") {
		t.Error("non-batch file was processed")
	}
}

func TestWatchNewFile(t *testing.T) {
	rawDir := t.TempDir()
	p, drinks, journal := newTestPipeline(t)
	w := New(rawDir, p, journal)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Give the watcher time to register before dropping the file.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(rawDir, "batch-1.ndjson"), []byte(validLine+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return drinks.Len() == 1 })
	if _, ok := drinks.Get("11007"); !ok {
		t.Error("drink not stored")
	}
}

func TestScanSkipsJournaledFiles(t *testing.T) {
	rawDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(rawDir, "old.ndjson"), []byte(validLine+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, drinks, journal := newTestPipeline(t)
	// Simulate a previous run having processed the file.
	if err := journal.Append(storage.Batch{Source: "old.ndjson", Total: 1, Stored: 1, Created: time.Now()}); err != nil {
		t.Fatal(err)
	}

	w := New(rawDir, p, journal)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(500 * time.Millisecond)
	if drinks.Len() != 0 {
		t.Errorf("stored drinks = %d, want 0", drinks.Len())
	}
	if len(journal.All()) != 1 {
		t.Errorf("journal entries = %d, want 1", len(journal.All()))
	}
}

func TestBadFileLeftForRetry(t *testing.T) {
	rawDir := t.TempDir()
	path := filepath.Join(rawDir, "broken.ndjson")
	if err := os.WriteFile(path, []byte("not json\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, drinks, journal := newTestPipeline(t)
	w := New(rawDir, p, journal)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(500 * time.Millisecond)
	if len(journal.All()) != 0 {
		t.Fatalf("journal entries = %d, want 0", len(journal.All()))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("broken file removed: %v", err)
	}

	// Fixing the file triggers a retry via the write event.
	if err := os.WriteFile(path, []byte(validLine+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return drinks.Len() == 1 })
}
