// Package config loads and validates yearfix configuration from TOML.
//
// Configuration is split into sections mirroring the engine's concerns:
// paths, processing cadence, rate limits, year logic thresholds, fallback
// behavior, and logging. Defaults are safe for a dry run against a small
// library; Load merges a user file over Default and normalizes paths.
package config
