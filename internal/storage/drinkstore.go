package storage

import (
	"fmt"
	"path/filepath"

	"github.com/coffeeverse/coffeeverse/internal/jsonldb"
)

// DrinkStore persists enriched drinks keyed by id with insert-or-replace
// semantics.
type DrinkStore struct {
	table *jsonldb.Table[Drink]
}

// NewDrinkStore opens (or creates) the drink table under dbDir.
func NewDrinkStore(dbDir string) (*DrinkStore, error) {
	table, err := jsonldb.NewTable[Drink](filepath.Join(dbDir, "drinks.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to open drink table: %w", err)
	}
	return &DrinkStore{table: table}, nil
}

// Upsert inserts the drink or replaces the stored drink with the same id.
func (s *DrinkStore) Upsert(d Drink) error {
	if d.ID == "" {
		return fmt.Errorf("drink has no id")
	}
	return s.table.Upsert(d)
}

// Get returns the drink with the given id.
func (s *DrinkStore) Get(id string) (Drink, bool) {
	return s.table.Get(id)
}

// List returns all drinks, optionally filtered by category. The result is in
// insertion order.
func (s *DrinkStore) List(category string) []Drink {
	var out []Drink
	for d := range s.table.All() {
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Len returns the number of stored drinks.
func (s *DrinkStore) Len() int {
	return s.table.Len()
}
