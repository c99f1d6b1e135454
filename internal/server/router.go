// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/coffeeverse/coffeeverse/internal/server/handlers"
	"github.com/coffeeverse/coffeeverse/internal/server/ratelimit"
)

// NewRouter creates and configures the HTTP router.
// processLimiter rate limits the manual trigger endpoint; nil disables it.
func NewRouter(svc *handlers.Services, cfg *handlers.Config, processLimiter *ratelimit.Limiter) http.Handler {
	mux := &http.ServeMux{}

	// Health check
	hh := handlers.NewHealthHandler(cfg.Version)
	mux.Handle("GET /api/health", Wrap(hh.Health, cfg))

	// Manual batch trigger
	ph := &handlers.ProcessHandler{Pipeline: svc.Pipeline, MaxBatchRecords: cfg.Quotas.MaxBatchRecords}
	mux.Handle("POST /api/process", ratelimit.Middleware(processLimiter, Wrap(ph.Process, cfg)))

	// Drink read endpoints
	dh := &handlers.DrinkHandler{Drinks: svc.Drinks}
	mux.Handle("GET /api/drinks", Wrap(dh.ListDrinks, cfg))
	mux.Handle("GET /api/drinks/{id}", Wrap(dh.GetDrink, cfg))

	// Batch journal
	bh := &handlers.BatchHandler{Journal: svc.Journal}
	mux.Handle("GET /api/batches", Wrap(bh.ListBatches, cfg))

	// Description generation
	dsh := &handlers.DescribeHandler{Drinks: svc.Drinks, Writer: svc.Writer, Reviewer: svc.Reviewer}
	mux.Handle("POST /api/drinks/{id}/describe", Wrap(dsh.DescribeDrink, cfg))

	return mux
}
