package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/coffeeverse/coffeeverse/internal/jsonldb"
)

// MirrorStore archives the full batch of enriched drinks as a single JSON
// artifact for audit and debugging, content-addressed in the blob store.
type MirrorStore struct {
	blobs *jsonldb.Store
}

// NewMirrorStore creates a mirror store rooted at dir.
func NewMirrorStore(dir string) (*MirrorStore, error) {
	blobs, err := jsonldb.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror store: %w", err)
	}
	return &MirrorStore{blobs: blobs}, nil
}

// Archive stores the JSON-serialized array of drinks and returns its ref.
// An empty batch is archived as "[]" so the journal row always has an
// artifact to point at.
func (m *MirrorStore) Archive(drinks []Drink) (jsonldb.BlobRef, error) {
	if drinks == nil {
		drinks = []Drink{}
	}
	data, err := json.MarshalIndent(drinks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal mirror artifact: %w", err)
	}
	ref, err := m.blobs.Put(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store mirror artifact: %w", err)
	}
	return ref, nil
}

// Open returns a reader over a previously archived artifact.
func (m *MirrorStore) Open(ref jsonldb.BlobRef) ([]Drink, error) {
	r, err := m.blobs.Open(ref)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	var drinks []Drink
	if err := json.NewDecoder(r).Decode(&drinks); err != nil {
		return nil, fmt.Errorf("failed to decode mirror artifact: %w", err)
	}
	return drinks, nil
}
