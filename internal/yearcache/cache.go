// Package yearcache is a JSON-file implementation of the engine's year cache
// contract. It exists so a default deployment works without an external
// cache service; any bridge.YearCache can replace it.
package yearcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"yearfix/internal/albumtype"
	"yearfix/internal/logging"
)

// Entry is one cached album year.
type Entry struct {
	Artist   string    `json:"artist"`
	Album    string    `json:"album"`
	Year     string    `json:"year"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache provides thread-safe access to the year cache file. An empty path
// turns every operation into a no-op.
type Cache struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	byKey  map[string]Entry
}

// New creates a cache instance backed by path. The file is created lazily on
// first store.
func New(path string, logger *slog.Logger) *Cache {
	c := &Cache{
		path:   path,
		logger: logging.NewComponentLogger(logger, "yearcache"),
		byKey:  make(map[string]Entry),
	}
	if path == "" {
		return c
	}
	if err := c.load(); err != nil {
		c.logger.Warn("failed to load year cache; starting empty", logging.Error(err))
	}
	return c
}

// GetCachedYear implements bridge.YearCache.
func (c *Cache) GetCachedYear(artist, album string) (string, bool) {
	if c.path == "" {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byKey[cacheKey(artist, album)]
	if !ok || entry.Year == "" {
		return "", false
	}
	return entry.Year, true
}

// StoreCachedYear implements bridge.YearCache.
func (c *Cache) StoreCachedYear(artist, album, year string) error {
	year = strings.TrimSpace(year)
	if year == "" {
		return errors.New("year cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[cacheKey(artist, album)] = Entry{
		Artist:   artist,
		Album:    album,
		Year:     year,
		CachedAt: time.Now().UTC(),
	}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist year cache: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

func cacheKey(artist, album string) string {
	return artist + "|" + albumtype.Normalize(album)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode year cache: %w", err)
	}
	c.byKey = entries
	return nil
}

// save writes the full map atomically via a temp-file rename. Caller holds
// the write lock.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.byKey, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
