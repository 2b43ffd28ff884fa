package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"yearfix/internal/logging"
)

// load reads every persisted row into memory. Entries keyed on the raw
// (unnormalized) album name are rekeyed to the cleaned-name key, and the
// migrated set is persisted in one transaction.
func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, artist, album, reason, marked_at, recheck_days, metadata FROM pending_albums`)
	if err != nil {
		return fmt.Errorf("load pending entries: %w", err)
	}
	defer rows.Close()

	var migrated []Entry
	for rows.Next() {
		entry, storedKey, err := scanEntry(rows)
		if err != nil {
			return err
		}
		canonical := Key(entry.Artist, entry.Album)
		if storedKey != canonical {
			if storedKey != rawKey(entry.Artist, entry.Album) {
				s.logger.Warn("pending entry has unrecognized key; rekeying anyway",
					logging.String(logging.FieldArtist, entry.Artist),
					logging.String(logging.FieldAlbum, entry.Album))
			}
			entry.Key = canonical
			migrated = append(migrated, Entry{Key: storedKey}) // old key, deleted below
		}
		entry.Key = canonical
		// Later rows win on collision, matching upsert semantics.
		s.entries[canonical] = entry
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan pending entries: %w", err)
	}

	if len(migrated) == 0 {
		return nil
	}
	return s.persistMigration(ctx, migrated)
}

// persistMigration deletes stale raw keys and rewrites their entries under
// canonical keys in a single transaction.
func (s *Store) persistMigration(ctx context.Context, stale []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rekey migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, old := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_albums WHERE key = ?`, old.Key); err != nil {
			return fmt.Errorf("delete stale key: %w", err)
		}
	}
	for _, entry := range s.entries {
		metadataJSON, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pending_albums (key, artist, album, reason, marked_at, recheck_days, metadata)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(key) DO UPDATE SET
                 artist = excluded.artist,
                 album = excluded.album,
                 reason = excluded.reason,
                 marked_at = excluded.marked_at,
                 recheck_days = excluded.recheck_days,
                 metadata = excluded.metadata`,
			entry.Key, entry.Artist, entry.Album, entry.Reason,
			entry.MarkedAt.Format(time.RFC3339Nano), entry.RecheckDays, string(metadataJSON))
		if err != nil {
			return fmt.Errorf("rewrite migrated entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rekey migration: %w", err)
	}

	s.logger.Info("rekeyed pending entries to normalized album keys",
		logging.Int("migrated", len(stale)))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, string, error) {
	var (
		entry        Entry
		storedKey    string
		markedAt     string
		metadataJSON sql.NullString
	)
	if err := row.Scan(&storedKey, &entry.Artist, &entry.Album, &entry.Reason, &markedAt, &entry.RecheckDays, &metadataJSON); err != nil {
		return Entry{}, "", fmt.Errorf("scan pending row: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, markedAt)
	if err != nil {
		return Entry{}, "", fmt.Errorf("parse marked_at: %w", err)
	}
	entry.MarkedAt = ts
	entry.Metadata = Metadata{}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata); err != nil {
			return Entry{}, "", fmt.Errorf("decode metadata: %w", err)
		}
	}
	entry.Key = storedKey
	return entry, storedKey, nil
}
