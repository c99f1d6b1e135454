package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/coffeeverse/coffeeverse/internal/transform"
)

func enrichedRecord(t *testing.T) transform.Record {
	t.Helper()
	rec := transform.Record{
		"idDrink":         "11007",
		"strDrink":        "Margarita",
		"strCategory":     "Cocktail",
		"strAlcoholic":    "Alcoholic",
		"strInstructions": "Shake.",
		"strGlass":        "Cocktail glass",
		"strIngredient1":  "Tequila",
		"strMeasure1":     "1 1/2 oz",
	}
	if !transform.Validate(t.Context(), rec) {
		t.Fatal("fixture record is invalid")
	}
	return transform.Enrich(rec, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
}

func TestFromRecord(t *testing.T) {
	d, err := FromRecord(enrichedRecord(t))
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if d.ID != "11007" || d.Name != "Margarita" || d.Category != "Cocktail" {
		t.Errorf("core fields = %q/%q/%q", d.ID, d.Name, d.Category)
	}
	if len(d.Ingredients) != 1 || d.Ingredients[0].Ingredient != "Tequila" {
		t.Errorf("Ingredients = %+v", d.Ingredients)
	}
	if d.SourceAPI != transform.SourceAPI {
		t.Errorf("SourceAPI = %q", d.SourceAPI)
	}
	// Fields outside the enrichment schema land in Extra.
	if d.Extra["strGlass"] != "Cocktail glass" {
		t.Errorf("Extra[strGlass] = %v", d.Extra["strGlass"])
	}
	if d.Extra["idDrink"] != "11007" {
		t.Errorf("Extra[idDrink] = %v", d.Extra["idDrink"])
	}
}

func TestDrinkJSONRoundtrip(t *testing.T) {
	d, err := FromRecord(enrichedRecord(t))
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// Extras must appear at the top level of the serialized object.
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal() to map error = %v", err)
	}
	if flat["strGlass"] != "Cocktail glass" {
		t.Errorf("serialized strGlass = %v", flat["strGlass"])
	}
	if flat["id"] != "11007" {
		t.Errorf("serialized id = %v", flat["id"])
	}
	if _, ok := flat["Extra"]; ok {
		t.Error("Extra leaked as a named field")
	}

	var back Drink
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() to Drink error = %v", err)
	}
	if back.ID != d.ID || back.Name != d.Name || back.Extra["strGlass"] != "Cocktail glass" {
		t.Errorf("roundtrip mismatch: %+v", back)
	}
	if len(back.Ingredients) != 1 || back.Ingredients[0].Measure != "1 1/2 oz" {
		t.Errorf("roundtrip Ingredients = %+v", back.Ingredients)
	}
}

func TestDrinkClone(t *testing.T) {
	d, err := FromRecord(enrichedRecord(t))
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	c := d.Clone()
	c.Ingredients[0].Ingredient = "changed"
	c.Extra["strGlass"] = "changed"
	if d.Ingredients[0].Ingredient == "changed" {
		t.Error("Clone shares the ingredient slice")
	}
	if d.Extra["strGlass"] == "changed" {
		t.Error("Clone shares the extra map")
	}
}

func TestDrinkStoreUpsert(t *testing.T) {
	store, err := NewDrinkStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDrinkStore() error = %v", err)
	}

	d, err := FromRecord(enrichedRecord(t))
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if err := store.Upsert(d); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	d.Instructions = "Shake well."
	if err := store.Upsert(d); err != nil {
		t.Fatalf("Upsert() replace error = %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	got, ok := store.Get("11007")
	if !ok {
		t.Fatal("Get(11007) not found")
	}
	if got.Instructions != "Shake well." {
		t.Errorf("Instructions = %q after replace", got.Instructions)
	}

	if err := store.Upsert(Drink{}); err == nil {
		t.Error("Upsert() with no id did not error")
	}
}

func TestDrinkStoreList(t *testing.T) {
	store, err := NewDrinkStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDrinkStore() error = %v", err)
	}
	for _, d := range []Drink{
		{ID: "1", Name: "Margarita", Category: "Cocktail"},
		{ID: "2", Name: "Mudslide", Category: "Milk / Float / Shake"},
		{ID: "3", Name: "Mojito", Category: "Cocktail"},
	} {
		if err := store.Upsert(d); err != nil {
			t.Fatalf("Upsert(%s) error = %v", d.ID, err)
		}
	}
	if got := store.List(""); len(got) != 3 {
		t.Errorf("List() = %d drinks, want 3", len(got))
	}
	got := store.List("Cocktail")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("List(Cocktail) = %+v", got)
	}
}
