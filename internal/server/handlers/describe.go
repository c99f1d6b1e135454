// Handles description generation for stored drinks.

package handlers

import (
	"context"
	"log/slog"

	"github.com/coffeeverse/coffeeverse/internal/agent"
	"github.com/coffeeverse/coffeeverse/internal/server/dto"
	"github.com/coffeeverse/coffeeverse/internal/storage"
)

// DescribeHandler handles description generation requests.
type DescribeHandler struct {
	Drinks   *storage.DrinkStore
	Writer   *agent.Writer   // nil when no API key is configured
	Reviewer *agent.Reviewer // nil when no API key is configured
}

// DescribeDrink generates a description of a stored drink and, when a
// reviewer is configured, fact-checks it against the record.
func (h *DescribeHandler) DescribeDrink(ctx context.Context, req *dto.DescribeDrinkRequest) (*dto.DescribeDrinkResponse, error) {
	if h.Writer == nil {
		return nil, dto.Unavailable("description generator")
	}
	d, ok := h.Drinks.Get(req.ID)
	if !ok {
		return nil, dto.NotFound("drink")
	}

	description, err := h.Writer.Describe(ctx, d)
	if err != nil {
		return nil, dto.Internal(err)
	}

	resp := &dto.DescribeDrinkResponse{
		ID:          d.ID,
		Description: description,
	}
	if h.Reviewer != nil {
		status, err := h.Reviewer.Review(ctx, d, description)
		if err != nil {
			// The description is still usable without a verdict.
			slog.WarnContext(ctx, "Failed to review description", "id", d.ID, "err", err)
		} else {
			resp.ReviewStatus = string(status)
		}
	}
	return resp, nil
}
