// Package watcher feeds raw batch files dropped into a directory through the
// pipeline, emulating a storage trigger.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/coffeeverse/coffeeverse/internal/pipeline"
	"github.com/coffeeverse/coffeeverse/internal/storage"
	"github.com/fsnotify/fsnotify"
)

// Watcher processes NDJSON batch files appearing in a directory. Files that
// were already processed in a previous run are skipped via the batch journal;
// files whose batch failed stay in place so a later write retries them.
type Watcher struct {
	dir      string
	pipeline *pipeline.Processor
	journal  *storage.BatchJournal
	done     map[string]bool
}

// New creates a watcher over dir. The directory must exist.
func New(dir string, p *pipeline.Processor, journal *storage.BatchJournal) *Watcher {
	return &Watcher{
		dir:      dir,
		pipeline: p,
		journal:  journal,
		done:     map[string]bool{},
	}
}

// eligible reports whether the file name looks like a batch file.
func eligible(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".json" || ext == ".ndjson"
}

// Run scans existing files, then blocks processing new ones until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	// Files dropped while the service was down.
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if !eligible(name) || w.done[name] {
				continue
			}
			// A Create event can race the producer's writes. A partially
			// written file fails to decode, stays in place, and is retried
			// here on the producer's next Write event.
			w.process(ctx, name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Watcher error", "dir", w.dir, "err", err)
		}
	}
}

// scan processes eligible files already present in the directory.
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to scan raw directory", "dir", w.dir, "err", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !eligible(entry.Name()) {
			continue
		}
		if w.journal.Seen(entry.Name()) {
			w.done[entry.Name()] = true
			continue
		}
		w.process(ctx, entry.Name())
	}
}

// process runs one file through the pipeline. Failures are logged and leave
// the file eligible for retry on the next write event.
func (w *Watcher) process(ctx context.Context, name string) {
	f, err := os.Open(filepath.Join(w.dir, name)) //nolint:gosec // G304: name comes from the watched directory
	if err != nil {
		slog.ErrorContext(ctx, "Failed to open batch file", "name", name, "err", err)
		return
	}
	defer func() { _ = f.Close() }()

	summary, err := w.pipeline.ProcessBlob(ctx, name, f)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process batch file", "name", name, "err", err)
		return
	}
	w.done[name] = true
	slog.InfoContext(ctx, "Processed batch file",
		"name", name, "batch", summary.BatchID, "stored", summary.Stored, "total", summary.Total)
}
