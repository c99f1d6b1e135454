package jsonldb

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
)

// Row is implemented by types stored in a [Table]. RowID addresses the row
// for [Table.Get] and [Table.Upsert]; Clone must return an independent copy
// so cached rows never escape by reference.
type Row[T any] interface {
	Clone() T
	RowID() string
}

// Table handles storage and in-memory caching for a single table in JSONL
// format. Line 1 of the file is the schema header; rows follow one per line.
type Table[T Row[T]] struct {
	path   string
	header schemaHeader

	mu   sync.RWMutex
	rows []T
}

// NewTable creates a new Table and loads all data from the file. A missing
// file is created with just the schema header on first write.
func NewTable[T Row[T]](path string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	columns, err := schemaFromType[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema for %s: %w", path, err)
	}
	t := &Table[T]{
		path:   path,
		header: schemaHeader{Version: currentVersion, Columns: columns},
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table[T]) load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.rows = []T{}
			return nil
		}
		return fmt.Errorf("failed to open table file %s: %w", t.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var rows []T
	first := true
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err != nil {
				return fmt.Errorf("failed to unmarshal schema header in %s: %w", t.path, err)
			}
			if err := header.Validate(); err != nil {
				return fmt.Errorf("invalid schema header in %s: %w", t.path, err)
			}
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return fmt.Errorf("failed to unmarshal row in %s: %w", t.path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read table file %s: %w", t.path, err)
	}

	t.rows = rows
	return nil
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns a clone of the row with the given ID, or false if absent.
func (t *Table[T]) Get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if row.RowID() == id {
			return row.Clone(), true
		}
	}
	var zero T
	return zero, false
}

// All returns an iterator over clones of all rows.
func (t *Table[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		for _, row := range t.rows {
			if !yield(row.Clone()) {
				return
			}
		}
	}
}

// Append adds a new row to the table and persists it.
func (t *Table[T]) Append(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(row)
}

// Upsert inserts the row, or replaces the existing row with the same RowID.
// Replacement rewrites the file; insertion appends a single line.
func (t *Table[T]) Upsert(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, existing := range t.rows {
		if existing.RowID() == row.RowID() {
			old := t.rows[i]
			t.rows[i] = row.Clone()
			if err := t.rewriteLocked(); err != nil {
				t.rows[i] = old
				return err
			}
			return nil
		}
	}
	return t.appendLocked(row)
}

func (t *Table[T]) appendLocked(row T) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	_, statErr := os.Stat(t.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G302,G304: table files are not secrets
	if err != nil {
		return fmt.Errorf("failed to open table file for append: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var buf bytes.Buffer
	if isNew {
		headerData, err := json.Marshal(&t.header)
		if err != nil {
			return fmt.Errorf("failed to marshal schema header: %w", err)
		}
		buf.Write(headerData)
		buf.WriteByte('\n')
	}
	buf.Write(data)
	buf.WriteByte('\n')
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	t.rows = append(t.rows, row.Clone())
	return nil
}

func (t *Table[T]) rewriteLocked() error {
	f, err := os.Create(t.path) //nolint:gosec // G304: path is fixed at construction
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	writer := bufio.NewWriter(f)
	headerData, err := json.Marshal(&t.header)
	if err != nil {
		return fmt.Errorf("failed to marshal schema header: %w", err)
	}
	if _, err := writer.Write(headerData); err != nil {
		return fmt.Errorf("failed to write schema header: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	for _, row := range t.rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}
