package pending

import (
	"fmt"
	"hash/fnv"
	"time"

	"yearfix/internal/albumtype"
)

// Verification reasons. Special-album reasons are built with SpecialReason.
const (
	ReasonNoYearFound          = "no_year_found"
	ReasonPrerelease           = "prerelease"
	ReasonAbsurdYearNoExisting = "absurd_year_no_existing"
	ReasonSuspiciousYearChange = "suspicious_year_change"
	ReasonSuspiciousAlbumName  = "suspicious_album_name"
)

// SpecialReason builds the reason string for a classified album type,
// e.g. "special_album_compilation".
func SpecialReason(albumType albumtype.Type) string {
	return fmt.Sprintf("special_album_%s", albumType)
}

// Metadata is the opaque string-keyed payload stored with an entry. Callers
// build it from typed per-reason structs; the store only serializes it.
type Metadata map[string]string

// Entry is one pending-verification record. At most one live entry exists per
// album; re-marking overwrites.
type Entry struct {
	Key         string
	Artist      string
	Album       string
	Reason      string
	MarkedAt    time.Time
	RecheckDays int
	Metadata    Metadata
}

// DaysPending returns whole days elapsed since the entry was marked.
func (e Entry) DaysPending(now time.Time) int {
	if now.Before(e.MarkedAt) {
		return 0
	}
	return int(now.Sub(e.MarkedAt).Hours() / 24)
}

// ElapsedCycles returns how many full recheck intervals have passed.
func (e Entry) ElapsedCycles(now time.Time) int {
	if e.RecheckDays <= 0 {
		return 0
	}
	return e.DaysPending(now) / e.RecheckDays
}

// Key hashes an album identity into the store key. The album name is cleaned
// first so raw and normalized spellings of the same album collide.
func Key(artist, album string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(artist))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(albumtype.Normalize(album)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// rawKey reproduces the historical key computed from the uncleaned album
// name; load-time migration rekeys these entries.
func rawKey(artist, album string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(artist))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(album))
	return fmt.Sprintf("%016x", h.Sum64())
}
