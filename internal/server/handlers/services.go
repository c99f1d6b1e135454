// Defines shared service dependencies for handlers.

package handlers

import (
	"github.com/coffeeverse/coffeeverse/internal/agent"
	"github.com/coffeeverse/coffeeverse/internal/config"
	"github.com/coffeeverse/coffeeverse/internal/pipeline"
	"github.com/coffeeverse/coffeeverse/internal/storage"
)

// Services holds all service dependencies for handlers.
type Services struct {
	Drinks   *storage.DrinkStore
	Journal  *storage.BatchJournal
	Pipeline *pipeline.Processor
	Writer   *agent.Writer   // may be nil
	Reviewer *agent.Reviewer // may be nil
}

// Config holds configuration values needed by handlers.
type Config struct {
	Version string
	Quotas  config.Quotas
}
