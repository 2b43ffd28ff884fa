// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"yearfix/internal/config"
	"yearfix/internal/logging"
	"yearfix/internal/pending"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	return &cfg
}

// MustOpenStore opens a pending.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...pending.Option) *pending.Store {
	t.Helper()

	store, err := pending.Open(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("pending.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
