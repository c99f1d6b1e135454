package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RateLimits.ProcessPerMin != 60 {
		t.Errorf("ProcessPerMin = %d", cfg.RateLimits.ProcessPerMin)
	}
	if cfg.Quotas.MaxRequestBodyBytes != 10*1024*1024 {
		t.Errorf("MaxRequestBodyBytes = %d", cfg.Quotas.MaxRequestBodyBytes)
	}
	if cfg.Agent.Model == "" {
		t.Error("Agent.Model is empty")
	}
	if !cfg.Audit.Enabled {
		t.Error("Audit.Enabled = false")
	}

	// The file was written so the operator can edit it.
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config.yaml not created: %v", err)
	}
	if !strings.Contains(string(data), "process_per_min: 60") {
		t.Errorf("config.yaml = %q", data)
	}
}

func TestLoadExisting(t *testing.T) {
	dir := t.TempDir()
	content := "rate_limits:\n  process_per_min: 5\n  burst: 1\nquotas:\n  max_request_body_bytes: 1024\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RateLimits.ProcessPerMin != 5 || cfg.RateLimits.Burst != 1 {
		t.Errorf("RateLimits = %+v", cfg.RateLimits)
	}
	if cfg.Quotas.MaxRequestBodyBytes != 1024 {
		t.Errorf("MaxRequestBodyBytes = %d", cfg.Quotas.MaxRequestBodyBytes)
	}
	// Unspecified sections keep defaults.
	if cfg.Agent.Model != "gemini-2.5-flash" {
		t.Errorf("Agent.Model = %q", cfg.Agent.Model)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	content := "rate_limits:\n  process_per_min: -1\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load() accepted negative rate limit")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultServerConfig()
	cfg.RateLimits.ProcessPerMin = 120
	cfg.Audit.AuthorName = "etl-bot"
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RateLimits.ProcessPerMin != 120 {
		t.Errorf("ProcessPerMin = %d", loaded.RateLimits.ProcessPerMin)
	}
	if loaded.Audit.AuthorName != "etl-bot" {
		t.Errorf("AuthorName = %q", loaded.Audit.AuthorName)
	}
}
