package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.YearRetrieval.Processing.BatchSize != defaultBatchSize {
		t.Fatalf("batch size = %d, want default", cfg.YearRetrieval.Processing.BatchSize)
	}
	if !cfg.Fallback.Enabled {
		t.Fatal("fallback should default on")
	}
}

func TestLoadOverridesNestedTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[year_retrieval.processing]
batch_size = 25
max_retries = 5

[rate_limits]
concurrent_api_calls = 1
concurrent_script_calls = 1

[logging]
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.YearRetrieval.Processing.BatchSize != 25 || cfg.YearRetrieval.Processing.MaxRetries != 5 {
		t.Fatalf("processing = %+v", cfg.YearRetrieval.Processing)
	}
	// Untouched fields keep their defaults.
	if cfg.YearRetrieval.Processing.PendingVerificationIntervalDays != defaultPendingIntervalDays {
		t.Fatalf("pending interval = %d", cfg.YearRetrieval.Processing.PendingVerificationIntervalDays)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q", cfg.Logging.Format)
	}
	if !cfg.SequentialMode() {
		t.Fatal("limit 1 without adaptive delay should be sequential")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[year_retrieval.processing]
batch_size = 0

[logic]
absurd_year_threshold = 30
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "batch_size") || !strings.Contains(err.Error(), "absurd_year_threshold") {
		t.Fatalf("error = %v, want both problems reported", err)
	}
}

func TestConcurrencyLimit(t *testing.T) {
	cfg := Default()
	cfg.RateLimits.ConcurrentAPICalls = 4
	cfg.RateLimits.ConcurrentScriptCalls = 2
	if got := cfg.ConcurrencyLimit(); got != 2 {
		t.Fatalf("ConcurrencyLimit = %d, want the smaller limit", got)
	}
	cfg.RateLimits.ConcurrentAPICalls = 0
	if got := cfg.ConcurrencyLimit(); got != 1 {
		t.Fatalf("ConcurrencyLimit = %d, want floor of 1", got)
	}
}

func TestSequentialMode(t *testing.T) {
	cfg := Default()
	cfg.RateLimits.ConcurrentAPICalls = 1
	cfg.RateLimits.ConcurrentScriptCalls = 1
	if !cfg.SequentialMode() {
		t.Fatal("limit 1 should be sequential")
	}
	cfg.YearRetrieval.Processing.AdaptiveDelay = true
	if cfg.SequentialMode() {
		t.Fatal("adaptive delay forces concurrent scheduling")
	}
}

func TestWriteSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
