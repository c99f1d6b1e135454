// Handles read access to stored drinks.

package handlers

import (
	"context"
	"encoding/json"

	"github.com/coffeeverse/coffeeverse/internal/server/dto"
	"github.com/coffeeverse/coffeeverse/internal/storage"
)

// DrinkHandler handles drink read endpoints.
type DrinkHandler struct {
	Drinks *storage.DrinkStore
}

// GetDrink returns one stored drink with its full enriched record.
func (h *DrinkHandler) GetDrink(ctx context.Context, req *dto.GetDrinkRequest) (*dto.DrinkResponse, error) {
	d, ok := h.Drinks.Get(req.ID)
	if !ok {
		return nil, dto.NotFound("drink")
	}
	record, err := drinkRecord(d)
	if err != nil {
		return nil, dto.Internal(err)
	}
	return &dto.DrinkResponse{
		ID:     d.ID,
		Name:   d.Name,
		Record: record,
	}, nil
}

// ListDrinks returns stored drinks, optionally filtered by category.
func (h *DrinkHandler) ListDrinks(ctx context.Context, req *dto.ListDrinksRequest) (*dto.ListDrinksResponse, error) {
	drinks := h.Drinks.List(req.Category)
	total := len(drinks)
	if req.Limit > 0 && len(drinks) > req.Limit {
		drinks = drinks[:req.Limit]
	}

	out := make([]dto.DrinkSummary, len(drinks))
	for i, d := range drinks {
		out[i] = dto.DrinkSummary{
			ID:        d.ID,
			Name:      d.Name,
			Category:  d.Category,
			Alcoholic: d.Alcoholic,
			Processed: d.ProcessingTimestamp,
		}
	}
	return &dto.ListDrinksResponse{Drinks: out, Total: total}, nil
}

// drinkRecord flattens a drink into the wire shape it was stored as.
func drinkRecord(d storage.Drink) (map[string]any, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}
