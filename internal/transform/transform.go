// Package transform validates and enriches raw drink records.
//
// A raw record is the JSON object shape produced by TheCocktailDB feed: a
// handful of required string fields plus up to 15 numbered ingredient/measure
// pairs (strIngredient1..15, strMeasure1..15). Enrichment flattens the
// numbered pairs into an ordered ingredient list, stamps provenance metadata
// and a processing timestamp, and leaves every other field untouched.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"
)

// Provenance tags stamped onto every enriched record. Downstream consumers
// key on these fields being present, so they are constants rather than
// configuration.
const (
	SourceAPI         = "TheCocktailDB"
	CloudProvider     = "Azure"
	ProcessingService = "coffeeverse-etl"
)

// MaxIngredients is the number of numbered ingredient/measure slots in the
// upstream schema.
const MaxIngredients = 15

// timestampLayout renders a fixed-width UTC timestamp that sorts
// lexicographically. The trailing Z is appended literally.
const timestampLayout = "2006-01-02T15:04:05.000000"

// RequiredFields are the fields a record must carry, with truthy values, to
// be accepted for enrichment.
var RequiredFields = []string{"idDrink", "strDrink", "strCategory", "strAlcoholic", "strInstructions"}

// Record is a raw or enriched drink record. Unknown fields pass through
// enrichment untouched, so the dynamic map shape is kept instead of a struct.
type Record map[string]any

// ID returns the record's upstream identifier, or "N/A" when absent. Only
// used for diagnostics.
func (r Record) ID() string {
	v, ok := r["idDrink"]
	if !ok || v == nil {
		return "N/A"
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return "N/A"
		}
		return s
	}
	return fmt.Sprint(v)
}

// Ingredient is one entry of the flattened ingredient list. Measure is always
// present in the serialized form, defaulting to "" when the upstream slot had
// no measure.
type Ingredient struct {
	Ingredient string `json:"ingredient"`
	Measure    string `json:"measure"`
}

// Validate reports whether the record carries all required fields with truthy
// values. Absence and falsy values (nil, "", false, 0) are treated the same.
// Invalid records are logged with their identifier; Validate never errors.
func Validate(ctx context.Context, rec Record) bool {
	for _, field := range RequiredFields {
		if !truthy(rec[field]) {
			slog.WarnContext(ctx, "Record missing required field", "id", rec.ID(), "field", field)
			return false
		}
	}
	return true
}

// Enrich returns an enriched copy of rec. The caller must have checked
// [Validate] first; behavior on an invalid record is unspecified.
//
// The input record is not mutated. Slots 1..15 are scanned in ascending
// order: truthy strIngredientN values become entries of the "ingredients"
// list (strMeasureN defaulting to ""), and all 30 slot keys are removed from
// the output whether or not they held a value. A record with no slot keys
// (for example one that was already enriched) yields an empty list.
func Enrich(rec Record, now time.Time) Record {
	out := Record(maps.Clone(map[string]any(rec)))

	ingredients := make([]Ingredient, 0, MaxIngredients)
	for i := 1; i <= MaxIngredients; i++ {
		ingredientKey := fmt.Sprintf("strIngredient%d", i)
		measureKey := fmt.Sprintf("strMeasure%d", i)

		if v := out[ingredientKey]; truthy(v) {
			ingredients = append(ingredients, Ingredient{
				Ingredient: asString(v),
				Measure:    measureOrEmpty(out[measureKey]),
			})
		}
		delete(out, ingredientKey)
		delete(out, measureKey)
	}

	out["ingredients"] = ingredients
	out["processing_timestamp"] = Timestamp(now)
	out["source_api"] = SourceAPI
	out["cloud_provider"] = CloudProvider
	out["processing_service"] = ProcessingService
	out["id"] = asString(out["idDrink"])
	return out
}

// Timestamp formats t as the fixed-width UTC form used for
// processing_timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout) + "Z"
}

// truthy replicates the upstream feed's notion of a present value: absent,
// nil, empty string, false and numeric zero all fail.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// asString renders a field value for storage. Required fields are
// semantically strings but malformed feeds occasionally carry numbers.
func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// measureOrEmpty keeps the silent default-to-empty behavior for absent
// measures so the key is always present downstream.
func measureOrEmpty(v any) string {
	if !truthy(v) {
		return ""
	}
	return asString(v)
}
