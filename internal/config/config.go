package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Processing contains batch cadence and retry settings.
type Processing struct {
	BatchSize                       int  `toml:"batch_size"`
	DelayBetweenBatches             int  `toml:"delay_between_batches"`
	AdaptiveDelay                   bool `toml:"adaptive_delay"`
	PendingVerificationIntervalDays int  `toml:"pending_verification_interval_days"`
	PrereleaseRecheckDays           int  `toml:"prerelease_recheck_days"`
	MaxRetries                      int  `toml:"max_retries"`
	RetryDelaySeconds               int  `toml:"retry_delay_seconds"`
}

// RateLimits caps in-flight external calls. The effective album concurrency
// is the smaller of the two limits.
type RateLimits struct {
	ConcurrentAPICalls    int `toml:"concurrent_api_calls"`
	ConcurrentScriptCalls int `toml:"concurrent_script_calls"`
}

// Logic contains year sanity thresholds.
type Logic struct {
	AbsurdYearThreshold int `toml:"absurd_year_threshold"`
	FutureYearTolerance int `toml:"future_year_tolerance"`
}

// Fallback contains the fallback decision engine settings.
type Fallback struct {
	Enabled                 bool `toml:"enabled"`
	YearDifferenceThreshold int  `toml:"year_difference_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// YearRetrieval groups the processing cadence settings under the
// [year_retrieval.processing] table.
type YearRetrieval struct {
	Processing Processing `toml:"processing"`
}

// Config is the root configuration document.
type Config struct {
	Paths         Paths         `toml:"paths"`
	YearRetrieval YearRetrieval `toml:"year_retrieval"`
	RateLimits    RateLimits    `toml:"rate_limits"`
	Logic         Logic         `toml:"logic"`
	Fallback      Fallback      `toml:"fallback"`
	Logging       Logging       `toml:"logging"`
}

// Processing is a convenience accessor for the nested processing table.
func (c *Config) ProcessingSettings() Processing {
	return c.YearRetrieval.Processing
}

// ConcurrencyLimit is the effective per-album concurrency: the minimum of
// the script and API rate limits, never below one.
func (c *Config) ConcurrencyLimit() int {
	limit := c.RateLimits.ConcurrentScriptCalls
	if c.RateLimits.ConcurrentAPICalls < limit {
		limit = c.RateLimits.ConcurrentAPICalls
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// SequentialMode reports whether album processing runs strictly one album at
// a time with inter-batch pauses.
func (c *Config) SequentialMode() bool {
	return c.ConcurrencyLimit() == 1 && !c.YearRetrieval.Processing.AdaptiveDelay
}

// EnsureDirectories creates the state and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/yearfix/config.toml")
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. An empty path uses DefaultConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := Default()

	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.normalize()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
