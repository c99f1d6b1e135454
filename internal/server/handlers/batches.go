// Handles read access to the batch journal.

package handlers

import (
	"context"
	"time"

	"github.com/coffeeverse/coffeeverse/internal/server/dto"
	"github.com/coffeeverse/coffeeverse/internal/storage"
)

// BatchHandler handles batch journal endpoints.
type BatchHandler struct {
	Journal *storage.BatchJournal
}

// ListBatches returns all recorded batch outcomes in append order.
func (h *BatchHandler) ListBatches(ctx context.Context, _ *dto.ListBatchesRequest) (*dto.ListBatchesResponse, error) {
	batches := h.Journal.All()
	out := make([]dto.BatchSummary, len(batches))
	for i, b := range batches {
		out[i] = dto.BatchSummary{
			ID:          b.ID.String(),
			Source:      b.Source,
			Total:       b.Total,
			Invalid:     b.Invalid,
			Stored:      b.Stored,
			StoreFailed: b.StoreFailed,
			Mirror:      string(b.Mirror),
			Created:     b.Created.UTC().Format(time.RFC3339),
		}
	}
	return &dto.ListBatchesResponse{Batches: out}, nil
}
