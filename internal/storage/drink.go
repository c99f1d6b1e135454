// Package storage persists enriched drink records and batch outcomes under
// the data directory, using jsonldb tables for rows and the blob store for
// mirror artifacts.
package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/coffeeverse/coffeeverse/internal/transform"
)

// Drink is one enriched drink record as stored. The named fields are the
// enrichment schema; Extra carries every other field of the original record
// (idDrink, strGlass, strTags, ...) so nothing upstream sends is lost.
//
// Custom JSON marshaling flattens Extra into the top-level object, keeping
// the stored shape identical to the enriched record.
type Drink struct {
	ID                  string                 `json:"id" jsonschema:"description=Primary identifier used for upsert addressing"`
	Name                string                 `json:"strDrink" jsonschema:"description=Drink display name"`
	Category            string                 `json:"strCategory"`
	Alcoholic           string                 `json:"strAlcoholic"`
	Instructions        string                 `json:"strInstructions"`
	Ingredients         []transform.Ingredient `json:"ingredients" jsonschema:"description=Flattened ingredient/measure pairs in slot order"`
	ProcessingTimestamp string                 `json:"processing_timestamp"`
	SourceAPI           string                 `json:"source_api"`
	CloudProvider       string                 `json:"cloud_provider"`
	ProcessingService   string                 `json:"processing_service"`
	Extra               map[string]any         `json:"-"`
}

// coreKeys are the JSON keys owned by the named Drink fields.
var coreKeys = []string{
	"id", "strDrink", "strCategory", "strAlcoholic", "strInstructions",
	"ingredients", "processing_timestamp", "source_api", "cloud_provider", "processing_service",
}

// FromRecord converts an enriched record into a Drink row.
func FromRecord(rec transform.Record) (Drink, error) {
	data, err := json.Marshal(map[string]any(rec))
	if err != nil {
		return Drink{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	var d Drink
	if err := json.Unmarshal(data, &d); err != nil {
		return Drink{}, fmt.Errorf("failed to convert record: %w", err)
	}
	return d, nil
}

// Clone returns an independent copy.
func (d Drink) Clone() Drink {
	d.Ingredients = slices.Clone(d.Ingredients)
	d.Extra = maps.Clone(d.Extra)
	return d
}

// RowID addresses the drink for upsert.
func (d Drink) RowID() string {
	return d.ID
}

// MarshalJSON flattens Extra into the top-level object alongside the named
// fields.
func (d Drink) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+len(coreKeys))
	maps.Copy(out, d.Extra)
	out["id"] = d.ID
	out["strDrink"] = d.Name
	out["strCategory"] = d.Category
	out["strAlcoholic"] = d.Alcoholic
	out["strInstructions"] = d.Instructions
	ingredients := d.Ingredients
	if ingredients == nil {
		ingredients = []transform.Ingredient{}
	}
	out["ingredients"] = ingredients
	out["processing_timestamp"] = d.ProcessingTimestamp
	out["source_api"] = d.SourceAPI
	out["cloud_provider"] = d.CloudProvider
	out["processing_service"] = d.ProcessingService
	return json.Marshal(out)
}

// UnmarshalJSON splits the flat object into named fields and Extra.
func (d *Drink) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	type fields struct {
		ID                  string                 `json:"id"`
		Name                string                 `json:"strDrink"`
		Category            string                 `json:"strCategory"`
		Alcoholic           string                 `json:"strAlcoholic"`
		Instructions        string                 `json:"strInstructions"`
		Ingredients         []transform.Ingredient `json:"ingredients"`
		ProcessingTimestamp string                 `json:"processing_timestamp"`
		SourceAPI           string                 `json:"source_api"`
		CloudProvider       string                 `json:"cloud_provider"`
		ProcessingService   string                 `json:"processing_service"`
	}
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	for _, key := range coreKeys {
		delete(m, key)
	}
	*d = Drink{
		ID:                  f.ID,
		Name:                f.Name,
		Category:            f.Category,
		Alcoholic:           f.Alcoholic,
		Instructions:        f.Instructions,
		Ingredients:         f.Ingredients,
		ProcessingTimestamp: f.ProcessingTimestamp,
		SourceAPI:           f.SourceAPI,
		CloudProvider:       f.CloudProvider,
		ProcessingService:   f.ProcessingService,
		Extra:               m,
	}
	if len(m) == 0 {
		d.Extra = nil
	}
	return nil
}
