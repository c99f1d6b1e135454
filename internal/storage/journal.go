package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/coffeeverse/coffeeverse/internal/jsonldb"
	"github.com/maruel/ksid"
)

// Batch records the outcome of one processed input batch: the source blob
// name, per-record counts, and the ref of the mirrored artifact.
type Batch struct {
	ID          ksid.ID         `json:"id" jsonschema:"description=Unique batch identifier"`
	Source      string          `json:"source" jsonschema:"description=Name of the input blob or invocation"`
	Total       int             `json:"total"`
	Invalid     int             `json:"invalid"`
	Stored      int             `json:"stored"`
	StoreFailed int             `json:"store_failed"`
	Mirror      jsonldb.BlobRef `json:"mirror,omitempty" jsonschema:"description=Ref of the mirrored artifact"`
	Created     time.Time       `json:"created"`
}

// Clone returns an independent copy.
func (b Batch) Clone() Batch {
	return b
}

// RowID addresses the batch row.
func (b Batch) RowID() string {
	return b.ID.String()
}

// BatchJournal is the append-only log of processed batches. The watcher uses
// it to skip raw files that were already processed in a previous run.
type BatchJournal struct {
	table *jsonldb.Table[Batch]
}

// NewBatchJournal opens (or creates) the batch journal under dbDir.
func NewBatchJournal(dbDir string) (*BatchJournal, error) {
	table, err := jsonldb.NewTable[Batch](filepath.Join(dbDir, "batches.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to open batch journal: %w", err)
	}
	return &BatchJournal{table: table}, nil
}

// Append records a batch outcome.
func (j *BatchJournal) Append(b Batch) error {
	return j.table.Append(b)
}

// Seen reports whether a batch from the given source completed before.
func (j *BatchJournal) Seen(source string) bool {
	for b := range j.table.All() {
		if b.Source == source {
			return true
		}
	}
	return false
}

// All returns all recorded batches in append order.
func (j *BatchJournal) All() []Batch {
	var out []Batch
	for b := range j.table.All() {
		out = append(out, b)
	}
	return out
}
