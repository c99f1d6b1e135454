// Handles the manual batch trigger endpoint.

package handlers

import (
	"context"
	"fmt"

	"github.com/coffeeverse/coffeeverse/internal/pipeline"
	"github.com/coffeeverse/coffeeverse/internal/server/dto"
	"github.com/coffeeverse/coffeeverse/internal/transform"
)

// ProcessHandler handles manual batch trigger requests.
type ProcessHandler struct {
	Pipeline        *pipeline.Processor
	MaxBatchRecords int // 0 means unlimited
}

// Process runs the submitted records through the pipeline as one batch.
func (h *ProcessHandler) Process(ctx context.Context, req *dto.ProcessRequest) (*dto.ProcessResponse, error) {
	if h.MaxBatchRecords > 0 && len(req.Records) > h.MaxBatchRecords {
		return nil, dto.ValidationFailed(fmt.Sprintf("batch exceeds %d records", h.MaxBatchRecords)).
			WithDetail("max_batch_records", h.MaxBatchRecords)
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	records := make([]transform.Record, len(req.Records))
	for i, rec := range req.Records {
		records[i] = transform.Record(rec)
	}

	summary, err := h.Pipeline.Process(ctx, source, records)
	if err != nil {
		return nil, dto.StorageError(err)
	}

	return &dto.ProcessResponse{
		Status:    "success",
		Total:     summary.Total,
		Processed: summary.Stored,
		Invalid:   summary.Invalid,
		Failed:    summary.StoreFailed,
		BatchID:   summary.BatchID.String(),
	}, nil
}
