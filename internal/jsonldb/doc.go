// Package jsonldb provides a concurrent-safe, JSONL-backed data store.
//
// # Overview
//
// The package centers around [Table], a generic container that stores rows in
// a JSONL (JSON Lines) file with full in-memory caching for fast reads.
// Tables are safe for concurrent use by multiple goroutines and use
// pessimistic locking: mutations hold the write lock for the entire
// read-modify-write operation. The tradeoff is lower throughput under high
// contention, which is acceptable for local file storage.
//
// Rows are addressed by [Row.RowID]; [Table.Upsert] implements
// insert-or-replace semantics keyed on it.
//
// # File Format
//
// Line 1 of each file is a schema header describing the row columns,
// generated by JSON Schema reflection over the row type. Subsequent lines are
// JSON rows.
//
// [Store] complements Table with content-addressed storage for larger
// artifacts; table rows reference blobs by [BlobRef].
package jsonldb
