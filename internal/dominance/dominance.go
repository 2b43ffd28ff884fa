// Package dominance decides whether an album's existing year metadata is
// already trustworthy, so external lookups can be skipped. The rule ordering
// here is deliberate and load-bearing: the shared-year short circuit must run
// before majority scoring, and the parity guard only after majority scoring
// fails, otherwise the engine oscillates between a majority pick and a parity
// rejection on the same album.
package dominance

import (
	"sort"

	"yearfix/internal/music"
)

// Threshold is the fraction of all album tracks (not just tracks with a
// year) that must share one year for it to count as dominant.
const Threshold = 0.6

// ParityWindow is the maximum count difference between the top two candidate
// years under which the result is considered ambiguous.
const ParityWindow = 2

// Dominant returns the album's dominant year, if any. Tracks are the full
// track list for one album, not pre-filtered.
func Dominant(tracks []music.Track) (string, bool) {
	if len(tracks) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	withYear := 0
	for _, track := range tracks {
		if track.HasYear() {
			counts[track.Year]++
			withYear++
		}
	}
	if len(counts) == 0 {
		return "", false
	}

	// A single shared year with disagreeing release-year values means the
	// year field is already authoritative; the release-year noise is handled
	// by a dedicated consensus check elsewhere.
	if len(counts) == 1 && withYear == len(tracks) && releaseYearsInconsistent(tracks) {
		return singleKey(counts), true
	}

	top, second := topTwo(counts)
	if float64(top.count)/float64(len(tracks)) >= Threshold {
		return top.year, true
	}

	// Collaboration albums: featured-artist credits often miss year metadata
	// entirely while every tagged track agrees.
	if len(counts) == 1 && withYear < len(tracks) {
		return singleKey(counts), true
	}

	if second.count > 0 && top.count-second.count <= ParityWindow {
		return "", false
	}

	return "", false
}

// ReleaseYearConsensus returns the single release-year value shared by every
// track that has one. Used by the resolution pipeline as a short circuit
// after dominance fails.
func ReleaseYearConsensus(tracks []music.Track) (string, bool) {
	consensus := ""
	for _, track := range tracks {
		if !music.YearPresent(track.ReleaseYear) {
			continue
		}
		if consensus == "" {
			consensus = track.ReleaseYear
			continue
		}
		if track.ReleaseYear != consensus {
			return "", false
		}
	}
	return consensus, consensus != ""
}

// MostFrequentYear returns the modal non-empty year of the track list. The
// fallback engine uses it as the "existing year" an incoming proposal is
// judged against.
func MostFrequentYear(tracks []music.Track) (string, bool) {
	counts := make(map[string]int)
	for _, track := range tracks {
		if track.HasYear() {
			counts[track.Year]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	top, _ := topTwo(counts)
	return top.year, true
}

func releaseYearsInconsistent(tracks []music.Track) bool {
	seen := ""
	for _, track := range tracks {
		if !music.YearPresent(track.ReleaseYear) {
			continue
		}
		if seen == "" {
			seen = track.ReleaseYear
			continue
		}
		if track.ReleaseYear != seen {
			return true
		}
	}
	return false
}

type yearCount struct {
	year  string
	count int
}

// topTwo returns the two highest-count years, ties broken by year string to
// keep results deterministic.
func topTwo(counts map[string]int) (yearCount, yearCount) {
	ranked := make([]yearCount, 0, len(counts))
	for year, count := range counts {
		ranked = append(ranked, yearCount{year, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].year < ranked[j].year
	})
	if len(ranked) == 1 {
		return ranked[0], yearCount{}
	}
	return ranked[0], ranked[1]
}

func singleKey(counts map[string]int) string {
	for year := range counts {
		return year
	}
	return ""
}
