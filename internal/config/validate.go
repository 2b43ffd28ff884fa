package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration invariants the engine depends on.
func (c *Config) Validate() error {
	var problems []string

	proc := c.YearRetrieval.Processing
	if proc.BatchSize < 1 {
		problems = append(problems, "year_retrieval.processing.batch_size must be at least 1")
	}
	if proc.DelayBetweenBatches < 0 {
		problems = append(problems, "year_retrieval.processing.delay_between_batches cannot be negative")
	}
	if proc.PendingVerificationIntervalDays < 1 {
		problems = append(problems, "year_retrieval.processing.pending_verification_interval_days must be at least 1")
	}
	if proc.PrereleaseRecheckDays < 1 {
		problems = append(problems, "year_retrieval.processing.prerelease_recheck_days must be at least 1")
	}
	if proc.MaxRetries < 1 {
		problems = append(problems, "year_retrieval.processing.max_retries must be at least 1")
	}
	if proc.RetryDelaySeconds < 0 {
		problems = append(problems, "year_retrieval.processing.retry_delay_seconds cannot be negative")
	}
	if c.RateLimits.ConcurrentAPICalls < 1 {
		problems = append(problems, "rate_limits.concurrent_api_calls must be at least 1")
	}
	if c.RateLimits.ConcurrentScriptCalls < 1 {
		problems = append(problems, "rate_limits.concurrent_script_calls must be at least 1")
	}
	if c.Logic.AbsurdYearThreshold < 1000 {
		problems = append(problems, "logic.absurd_year_threshold must be a four-digit year")
	}
	if c.Logic.FutureYearTolerance < 0 {
		problems = append(problems, "logic.future_year_tolerance cannot be negative")
	}
	if c.Fallback.YearDifferenceThreshold < 1 {
		problems = append(problems, "fallback.year_difference_threshold must be at least 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// normalize expands home-relative paths and fills blank fields with defaults.
func (c *Config) normalize() {
	if c.Paths.StateDir == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = defaultLogDir
	}
	c.Paths.StateDir = expandPath(c.Paths.StateDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)

	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
