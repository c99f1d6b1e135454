// Package config manages service configuration stored in config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig stores all service-wide configuration.
// Loaded from config.yaml in the data directory, created with defaults if
// missing.
type ServerConfig struct {
	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `yaml:"rate_limits"`

	// Quotas defines request and batch size limits.
	Quotas Quotas `yaml:"quotas"`

	// Agent configures the description generator. Empty model falls back to
	// the default; the API key always comes from the environment.
	Agent Agent `yaml:"agent"`

	// Audit configures change tracking of the data directory.
	Audit Audit `yaml:"audit"`
}

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// ProcessPerMin limits manual batch trigger requests per client.
	// 0 means unlimited.
	ProcessPerMin int `yaml:"process_per_min"`

	// Burst is the bucket capacity for the process limiter.
	Burst int `yaml:"burst"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.ProcessPerMin < 0 {
		return errors.New("process_per_min must be non-negative")
	}
	if r.Burst < 0 {
		return errors.New("burst must be non-negative")
	}
	return nil
}

// Quotas defines request and batch size limits.
type Quotas struct {
	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	// MaxBatchRecords limits records accepted in a single batch.
	// 0 means unlimited.
	MaxBatchRecords int `yaml:"max_batch_records"`
}

// Validate checks that quota values are non-negative.
func (q *Quotas) Validate() error {
	if q.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	if q.MaxBatchRecords < 0 {
		return errors.New("max_batch_records must be non-negative")
	}
	return nil
}

// Agent configures the description generator.
type Agent struct {
	// Model names the generation model, e.g. "gemini-2.5-flash".
	Model string `yaml:"model"`
}

// Audit configures git change tracking of the data directory.
type Audit struct {
	// Enabled turns audit commits on.
	Enabled bool `yaml:"enabled"`

	// AuthorName and AuthorEmail sign audit commits.
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// DefaultServerConfig returns the default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimits: RateLimits{
			ProcessPerMin: 60,
			Burst:         10,
		},
		Quotas: Quotas{
			MaxRequestBodyBytes: 10 * 1024 * 1024, // 10 MiB
			MaxBatchRecords:     0,                // unlimited
		},
		Agent: Agent{
			Model: "gemini-2.5-flash",
		},
		Audit: Audit{
			Enabled:     true,
			AuthorName:  "coffeeverse",
			AuthorEmail: "etl@coffeeverse.local",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *ServerConfig) Validate() error {
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	if err := c.Quotas.Validate(); err != nil {
		return fmt.Errorf("quotas: %w", err)
	}
	return nil
}

// Load loads configuration from dataDir/config.yaml.
// Creates the file with defaults if it doesn't exist.
func Load(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, "config.yaml")

	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config.yaml: %w", err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/config.yaml.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}
	return nil
}
