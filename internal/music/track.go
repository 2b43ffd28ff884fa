package music

import (
	"strconv"
	"strings"
)

// Status mirrors the host application's track status field.
type Status string

const (
	// StatusSubscription marks editable streaming-catalog tracks. Only these
	// are candidates for year updates.
	StatusSubscription Status = "subscription"
	// StatusPrerelease marks read-only tracks from a future release.
	StatusPrerelease Status = "prerelease"
	StatusPurchased  Status = "purchased"
	StatusMatched    Status = "matched"
	StatusUploaded   Status = "uploaded"
)

// Editable reports whether the host application accepts metadata writes for
// tracks in this status.
func (s Status) Editable() bool {
	return s != StatusPrerelease
}

// EligibleForYearUpdate reports whether the engine may assign a year to
// tracks in this status.
func (s Status) EligibleForYearUpdate() bool {
	return s == StatusSubscription
}

// Track is the slice of host-application track state the engine reads and
// writes. Year and ReleaseYear are numeric strings; "" and "0" mean absent.
type Track struct {
	ID          string
	Artist      string
	AlbumArtist string
	Album       string
	Year        string
	ReleaseYear string
	Status      Status
}

// HasYear reports whether the track carries a usable year value.
func (t Track) HasYear() bool {
	return YearPresent(t.Year)
}

// YearValue parses the track year; ok is false for absent or malformed values.
func (t Track) YearValue() (int, bool) {
	return ParseYear(t.Year)
}

// EffectiveAlbumArtist returns the album artist, falling back to a trimmed
// track artist when the field is blank.
func (t Track) EffectiveAlbumArtist() string {
	if artist := strings.TrimSpace(t.AlbumArtist); artist != "" {
		return artist
	}
	return strings.TrimSpace(t.Artist)
}

// YearPresent reports whether a raw year string holds a value; "" and the
// literal "0" count as absent.
func YearPresent(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed != "" && trimmed != "0"
}

// ParseYear converts a raw year string into an int. Absent and malformed
// values return ok=false.
func ParseYear(raw string) (int, bool) {
	if !YearPresent(raw) {
		return 0, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
