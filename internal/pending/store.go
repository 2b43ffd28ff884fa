package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"yearfix/internal/config"
	"yearfix/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_albums (
    key TEXT PRIMARY KEY,
    artist TEXT NOT NULL,
    album TEXT NOT NULL,
    reason TEXT NOT NULL,
    marked_at TEXT NOT NULL,
    recheck_days INTEGER NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_pending_reason ON pending_albums(reason);
`

// Store is the durable pending-verification table. All public methods are
// safe for concurrent use; the internal mutex is the engine's only
// cross-album serialization point.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	defaultRecheckDays int
	now                func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

// Option customizes store construction.
type Option func(*Store)

// WithClock overrides the store's time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the pending database under the configured state
// directory, applies the schema, loads all rows into memory, and rekeys
// entries whose key predates album-name normalization.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "pending.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	store := &Store{
		db:                 db,
		path:               dbPath,
		logger:             logging.NewComponentLogger(logger, "pending"),
		defaultRecheckDays: cfg.YearRetrieval.Processing.PendingVerificationIntervalDays,
		now:                time.Now,
		entries:            make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// MarkOptions carries the optional parameters of MarkForVerification.
type MarkOptions struct {
	Reason      string
	Metadata    Metadata
	RecheckDays int
}

// MarkForVerification upserts a pending entry for the album with the current
// timestamp. Zero-valued options fall back to reason "no_year_found" and the
// configured recheck interval. The durable write completes before returning;
// a write failure is logged and the in-memory entry kept.
func (s *Store) MarkForVerification(ctx context.Context, artist, album string, opts MarkOptions) error {
	reason := opts.Reason
	if reason == "" {
		reason = ReasonNoYearFound
	}
	recheckDays := opts.RecheckDays
	if recheckDays <= 0 {
		recheckDays = s.defaultRecheckDays
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = Metadata{}
	}

	entry := Entry{
		Key:         Key(artist, album),
		Artist:      artist,
		Album:       album,
		Reason:      reason,
		MarkedAt:    s.now().UTC(),
		RecheckDays: recheckDays,
		Metadata:    metadata,
	}

	s.mu.Lock()
	s.entries[entry.Key] = entry
	s.mu.Unlock()

	if err := s.persist(ctx, entry); err != nil {
		s.logger.Warn("pending write failed; in-memory state retained",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album),
			logging.Error(err))
		return err
	}

	s.logger.Debug("album marked for verification",
		logging.String(logging.FieldArtist, artist),
		logging.String(logging.FieldAlbum, album),
		logging.String(logging.FieldReason, reason),
		logging.Int("recheck_days", recheckDays))
	return nil
}

// IsVerificationNeeded reports whether the album has a pending entry whose
// recheck interval has elapsed.
func (s *Store) IsVerificationNeeded(artist, album string) bool {
	s.mu.Lock()
	entry, ok := s.entries[Key(artist, album)]
	s.mu.Unlock()
	if !ok {
		return false
	}
	recheckAfter := entry.MarkedAt.Add(time.Duration(entry.RecheckDays) * 24 * time.Hour)
	return !s.now().Before(recheckAfter)
}

// Contains reports whether the album has any pending entry, elapsed or not.
func (s *Store) Contains(artist, album string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[Key(artist, album)]
	return ok
}

// Get returns the pending entry for the album, if present.
func (s *Store) Get(artist, album string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[Key(artist, album)]
	return entry, ok
}

// RemoveFromPending deletes the album's entry once a year is confirmed. A
// missing entry is a no-op and performs no durable write.
func (s *Store) RemoveFromPending(ctx context.Context, artist, album string) error {
	key := Key(artist, album)

	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_albums WHERE key = ?`, key); err != nil {
		s.logger.Warn("pending delete failed; in-memory state retained",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album),
			logging.Error(err))
		return fmt.Errorf("delete pending entry: %w", err)
	}
	return nil
}

// All returns every pending entry, ordered by artist then album.
func (s *Store) All() []Entry {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	sortEntries(entries)
	return entries
}

// ByReason returns pending entries carrying the given reason.
func (s *Store) ByReason(reason string) []Entry {
	s.mu.Lock()
	var entries []Entry
	for _, entry := range s.entries {
		if entry.Reason == reason {
			entries = append(entries, entry)
		}
	}
	s.mu.Unlock()

	sortEntries(entries)
	return entries
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Artist != entries[j].Artist {
			return entries[i].Artist < entries[j].Artist
		}
		return entries[i].Album < entries[j].Album
	})
}

// persist mirrors one entry to SQLite. The caller must not hold the mutex;
// writes are serialized by the single-writer assumption.
func (s *Store) persist(ctx context.Context, entry Entry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_albums (key, artist, album, reason, marked_at, recheck_days, metadata)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             artist = excluded.artist,
             album = excluded.album,
             reason = excluded.reason,
             marked_at = excluded.marked_at,
             recheck_days = excluded.recheck_days,
             metadata = excluded.metadata`,
		entry.Key,
		entry.Artist,
		entry.Album,
		entry.Reason,
		entry.MarkedAt.Format(time.RFC3339Nano),
		entry.RecheckDays,
		string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert pending entry: %w", err)
	}
	return nil
}
