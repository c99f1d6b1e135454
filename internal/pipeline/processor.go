// Package pipeline drives a batch of raw records through validation,
// enrichment and persistence.
//
// Per-record failures (invalid record, store rejection) are isolated: they
// are logged, counted, and the batch continues. Only a batch-level failure
// (input that cannot be decoded at all) aborts and is surfaced to the caller
// so the trigger's retry policy can re-run the batch.
package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/coffeeverse/coffeeverse/internal/jsonldb"
	"github.com/coffeeverse/coffeeverse/internal/storage"
	"github.com/coffeeverse/coffeeverse/internal/transform"
	"github.com/maruel/ksid"
)

// Store persists enriched drinks keyed by id.
type Store interface {
	Upsert(storage.Drink) error
}

// Mirror archives the full batch of enriched drinks as one artifact.
type Mirror interface {
	Archive([]storage.Drink) (jsonldb.BlobRef, error)
}

// Journal records batch outcomes.
type Journal interface {
	Append(storage.Batch) error
}

// Auditor commits the data directory after a batch. Optional.
type Auditor interface {
	Commit(ctx context.Context, msg string) error
}

// Summary reports the outcome of one batch.
type Summary struct {
	BatchID     ksid.ID
	Source      string
	Total       int
	Invalid     int
	Stored      int
	StoreFailed int
	Mirror      jsonldb.BlobRef
}

// Processor transforms batches of raw records and hands the results to its
// collaborators. All collaborators are injected so tests can substitute
// fakes; there is no shared state between batches.
type Processor struct {
	store   Store
	mirror  Mirror
	journal Journal
	auditor Auditor // nil disables audit commits
	now     func() time.Time
}

// New creates a Processor. auditor may be nil.
func New(store Store, mirror Mirror, journal Journal, auditor Auditor) *Processor {
	return &Processor{
		store:   store,
		mirror:  mirror,
		journal: journal,
		auditor: auditor,
		now:     time.Now,
	}
}

// ProcessBlob decodes NDJSON input (one record per line, blank and
// whitespace-only lines skipped) and processes it as one batch. A line that
// fails to decode aborts the whole batch before any record is stored.
func (p *Processor) ProcessBlob(ctx context.Context, name string, r io.Reader) (Summary, error) {
	var records []transform.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var rec transform.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Summary{}, fmt.Errorf("failed to decode %s line %d: %w", name, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return p.Process(ctx, name, records)
}

// Process runs one batch of already-decoded records: validate, enrich, upsert
// each record, then mirror the enriched batch and journal the outcome.
// Per-record failures never fail the batch.
func (p *Processor) Process(ctx context.Context, name string, records []transform.Record) (Summary, error) {
	summary := Summary{
		BatchID: ksid.NewID(),
		Source:  name,
		Total:   len(records),
	}
	slog.InfoContext(ctx, "Processing batch", "batch", summary.BatchID, "source", name, "records", len(records))

	var enriched []storage.Drink
	for _, rec := range records {
		if !transform.Validate(ctx, rec) {
			summary.Invalid++
			slog.WarnContext(ctx, "Skipping invalid record", "batch", summary.BatchID, "id", rec.ID())
			continue
		}
		drink, err := storage.FromRecord(transform.Enrich(rec, p.now()))
		if err != nil {
			// Records are plain JSON objects at this point; conversion cannot
			// realistically fail, but treat it like a store rejection if it does.
			summary.StoreFailed++
			slog.ErrorContext(ctx, "Failed to convert record", "batch", summary.BatchID, "id", rec.ID(), "err", err)
			continue
		}
		enriched = append(enriched, drink)

		if err := p.store.Upsert(drink); err != nil {
			summary.StoreFailed++
			slog.ErrorContext(ctx, "Failed to store record", "batch", summary.BatchID, "id", drink.ID, "err", err)
			continue
		}
		summary.Stored++
		slog.DebugContext(ctx, "Stored record", "batch", summary.BatchID, "id", drink.ID)
	}

	ref, err := p.mirror.Archive(enriched)
	if err != nil {
		return summary, fmt.Errorf("failed to mirror batch %s: %w", name, err)
	}
	summary.Mirror = ref

	if err := p.journal.Append(storage.Batch{
		ID:          summary.BatchID,
		Source:      name,
		Total:       summary.Total,
		Invalid:     summary.Invalid,
		Stored:      summary.Stored,
		StoreFailed: summary.StoreFailed,
		Mirror:      ref,
		Created:     p.now().UTC(),
	}); err != nil {
		return summary, fmt.Errorf("failed to journal batch %s: %w", name, err)
	}

	if p.auditor != nil {
		msg := fmt.Sprintf("batch %s: %d/%d stored", name, summary.Stored, summary.Total)
		if err := p.auditor.Commit(ctx, msg); err != nil {
			// Audit is best effort; the data is already persisted.
			slog.ErrorContext(ctx, "Failed to commit audit trail", "batch", summary.BatchID, "err", err)
		}
	}

	slog.InfoContext(ctx, "Batch complete",
		"batch", summary.BatchID,
		"source", name,
		"total", summary.Total,
		"stored", summary.Stored,
		"invalid", summary.Invalid,
		"store_failed", summary.StoreFailed)
	return summary, nil
}
