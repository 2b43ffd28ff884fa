package pending_test

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"yearfix/internal/pending"
	"yearfix/internal/testsupport"
)

func TestMarkAndRecheckInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	store := testsupport.MustOpenStore(t, cfg, pending.WithClock(func() time.Time { return *clock }))

	ctx := context.Background()
	if err := store.MarkForVerification(ctx, "Artist", "Album", pending.MarkOptions{}); err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}

	if store.IsVerificationNeeded("Artist", "Album") {
		t.Fatal("fresh entry should not need verification")
	}

	interval := cfg.YearRetrieval.Processing.PendingVerificationIntervalDays
	now = now.Add(time.Duration(interval)*24*time.Hour + time.Hour)
	if !store.IsVerificationNeeded("Artist", "Album") {
		t.Fatal("entry past recheck interval should need verification")
	}

	if err := store.RemoveFromPending(ctx, "Artist", "Album"); err != nil {
		t.Fatalf("RemoveFromPending: %v", err)
	}
	if store.IsVerificationNeeded("Artist", "Album") {
		t.Fatal("removed entry should not need verification")
	}
	if store.Contains("Artist", "Album") {
		t.Fatal("removed entry should be absent")
	}
}

func TestMarkDefaultsAndOverwrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := store.MarkForVerification(ctx, "A", "B", pending.MarkOptions{}); err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}
	entry, ok := store.Get("A", "B")
	if !ok {
		t.Fatal("entry missing")
	}
	if entry.Reason != pending.ReasonNoYearFound {
		t.Fatalf("reason = %q, want default", entry.Reason)
	}
	if entry.RecheckDays != cfg.YearRetrieval.Processing.PendingVerificationIntervalDays {
		t.Fatalf("recheck days = %d", entry.RecheckDays)
	}

	// Re-marking overwrites; at most one live entry per album.
	err := store.MarkForVerification(ctx, "A", "B", pending.MarkOptions{
		Reason:      pending.ReasonPrerelease,
		RecheckDays: 7,
		Metadata:    pending.Metadata{"note": "x"},
	})
	if err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
	entry, _ = store.Get("A", "B")
	if entry.Reason != pending.ReasonPrerelease || entry.RecheckDays != 7 || entry.Metadata["note"] != "x" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.RemoveFromPending(context.Background(), "Nobody", "Nothing"); err != nil {
		t.Fatalf("RemoveFromPending: %v", err)
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	err := store.MarkForVerification(ctx, "Artist", "Album", pending.MarkOptions{
		Reason:   pending.ReasonSuspiciousYearChange,
		Metadata: pending.Metadata{"existing_year": "1999", "proposed_year": "2010"},
	})
	if err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	entry, ok := reopened.Get("Artist", "Album")
	if !ok {
		t.Fatal("entry lost across reopen")
	}
	if entry.Reason != pending.ReasonSuspiciousYearChange || entry.Metadata["proposed_year"] != "2010" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestByReason(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		album := fmt.Sprintf("Album %d", i)
		reason := pending.ReasonNoYearFound
		if i == 2 {
			reason = pending.ReasonPrerelease
		}
		if err := store.MarkForVerification(ctx, "Artist", album, pending.MarkOptions{Reason: reason}); err != nil {
			t.Fatalf("MarkForVerification: %v", err)
		}
	}

	if got := len(store.ByReason(pending.ReasonNoYearFound)); got != 2 {
		t.Fatalf("ByReason(no_year_found) = %d, want 2", got)
	}
	if got := len(store.All()); got != 3 {
		t.Fatalf("All() = %d, want 3", got)
	}
}

// legacyRawKey mirrors the key scheme that hashed the album name without
// normalization.
func legacyRawKey(artist, album string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(artist))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(album))
	return fmt.Sprintf("%016x", h.Sum64())
}

func TestLoadRekeysRawAlbumNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	album := "Album (Deluxe)"

	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	if err := store.MarkForVerification(ctx, "Artist", album, pending.MarkOptions{}); err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}
	store.Close()

	// Rewrite the row under the legacy raw-name key.
	raw := legacyRawKey("Artist", album)
	canonical := pending.Key("Artist", album)
	if raw == canonical {
		t.Fatal("test requires raw and canonical keys to differ")
	}
	db, err := sql.Open("sqlite", filepath.Join(cfg.Paths.StateDir, "pending.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(`UPDATE pending_albums SET key = ? WHERE key = ?`, raw, canonical); err != nil {
		t.Fatalf("rewrite key: %v", err)
	}
	db.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	if !reopened.Contains("Artist", album) {
		t.Fatal("rekeyed entry not reachable under canonical key")
	}
	reopened.Close()

	// The migration is persisted: the raw key is gone from the table.
	db, err = sql.Open("sqlite", filepath.Join(cfg.Paths.StateDir, "pending.db"))
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pending_albums WHERE key = ?`, raw).Scan(&count); err != nil {
		t.Fatalf("count raw keys: %v", err)
	}
	if count != 0 {
		t.Fatal("raw key still present after migration")
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM pending_albums WHERE key = ?`, canonical).Scan(&count); err != nil {
		t.Fatalf("count canonical keys: %v", err)
	}
	if count != 1 {
		t.Fatalf("canonical key count = %d, want 1", count)
	}
}

func TestProblematicReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := &now
	store := testsupport.MustOpenStore(t, cfg, pending.WithClock(func() time.Time { return *clock }))

	ctx := context.Background()
	if err := store.MarkForVerification(ctx, "Old Artist", "Old Album", pending.MarkOptions{RecheckDays: 10}); err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}
	now = now.Add(25 * 24 * time.Hour) // two full 10-day cycles elapsed
	if err := store.MarkForVerification(ctx, "New Artist", "New Album", pending.MarkOptions{RecheckDays: 10}); err != nil {
		t.Fatalf("MarkForVerification: %v", err)
	}

	count, err := store.ProblematicReport(cfg.Paths.LogDir, 3)
	if err != nil {
		t.Fatalf("ProblematicReport: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 (only the 2-cycle entry qualifies)", count)
	}

	reportPath := filepath.Join(cfg.Paths.LogDir, "pending_problematic.txt")
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "Old Album") {
		t.Fatalf("report missing entry:\n%s", data)
	}
	if strings.Contains(string(data), "New Album") {
		t.Fatalf("report includes fresh entry:\n%s", data)
	}
}
