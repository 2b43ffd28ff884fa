package dominance

import (
	"testing"

	"yearfix/internal/music"
)

func tracksWithYears(years ...string) []music.Track {
	tracks := make([]music.Track, len(years))
	for i, year := range years {
		tracks[i] = music.Track{ID: "t", Year: year}
	}
	return tracks
}

func TestDominantMajorityRule(t *testing.T) {
	cases := []struct {
		name  string
		years []string
		want  string
		found bool
	}{
		{"empty album", nil, "", false},
		{"no years at all", []string{"", "", "0"}, "", false},
		{"unanimous", []string{"1999", "1999", "1999"}, "1999", true},
		{"sixty percent exactly", []string{"2001", "2001", "2001", "2005", ""}, "2001", true},
		{"below threshold parity", []string{"2001", "2001", "2005", "2005", ""}, "", false},
		{"dominance beats parity window", []string{"2010", "2010", "2010", "2012", ""}, "2010", true},
		{"large gap but under threshold", []string{"1990", "1990", "1990", "1993", "", "", "", ""}, "", false},
		{"zero years excluded", []string{"0", "0", "2015", "2015", "2015"}, "2015", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := Dominant(tracksWithYears(tc.years...))
			if found != tc.found || got != tc.want {
				t.Fatalf("Dominant(%v) = (%q, %v), want (%q, %v)", tc.years, got, found, tc.want, tc.found)
			}
		})
	}
}

func TestDominantCollaborationException(t *testing.T) {
	// One distinct year plus empty-year feature credits: trusted even though
	// the leader holds only a third of tracks.
	tracks := tracksWithYears("2018", "", "")
	got, found := Dominant(tracks)
	if !found || got != "2018" {
		t.Fatalf("Dominant = (%q, %v), want (2018, true)", got, found)
	}
}

func TestDominantParityGuard(t *testing.T) {
	// Top two counts within the parity window and neither dominant: defer to
	// external lookup.
	tracks := tracksWithYears("2001", "2001", "2001", "2003", "2003", "", "", "")
	if got, found := Dominant(tracks); found {
		t.Fatalf("expected parity rejection, got %q", got)
	}
}

func TestDominantSharedYearBypassesScoring(t *testing.T) {
	// All tracks share a year while release years disagree; the year wins
	// immediately even though parity scoring would not object either way.
	tracks := []music.Track{
		{ID: "a", Year: "1984", ReleaseYear: "1984"},
		{ID: "b", Year: "1984", ReleaseYear: "2014"},
		{ID: "c", Year: "1984", ReleaseYear: "1984"},
	}
	got, found := Dominant(tracks)
	if !found || got != "1984" {
		t.Fatalf("Dominant = (%q, %v), want (1984, true)", got, found)
	}
}

func TestDominantSharedYearConsistentReleaseYears(t *testing.T) {
	// Shared year with consistent release years takes the normal majority
	// path; three of three tracks is dominant anyway.
	tracks := []music.Track{
		{ID: "a", Year: "1984", ReleaseYear: "1984"},
		{ID: "b", Year: "1984", ReleaseYear: "1984"},
	}
	got, found := Dominant(tracks)
	if !found || got != "1984" {
		t.Fatalf("Dominant = (%q, %v), want (1984, true)", got, found)
	}
}

func TestDominantOrderingDoesNotOscillate(t *testing.T) {
	// The fragile interaction: a shared year over exactly 60% of tracks with
	// inconsistent release years must resolve identically no matter how many
	// times it is evaluated.
	tracks := []music.Track{
		{ID: "a", Year: "1999", ReleaseYear: "1999"},
		{ID: "b", Year: "1999", ReleaseYear: "2009"},
		{ID: "c", Year: "1999"},
		{ID: "d"},
		{ID: "e"},
	}
	first, foundFirst := Dominant(tracks)
	second, foundSecond := Dominant(tracks)
	if first != second || foundFirst != foundSecond {
		t.Fatalf("oscillation: (%q,%v) then (%q,%v)", first, foundFirst, second, foundSecond)
	}
	if !foundFirst || first != "1999" {
		t.Fatalf("Dominant = (%q, %v), want (1999, true)", first, foundFirst)
	}
}

func TestReleaseYearConsensus(t *testing.T) {
	cases := []struct {
		name         string
		releaseYears []string
		want         string
		found        bool
	}{
		{"no release years", []string{"", ""}, "", false},
		{"consistent", []string{"2007", "", "2007"}, "2007", true},
		{"inconsistent", []string{"2007", "2008"}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracks := make([]music.Track, len(tc.releaseYears))
			for i, ry := range tc.releaseYears {
				tracks[i] = music.Track{ID: "t", ReleaseYear: ry}
			}
			got, found := ReleaseYearConsensus(tracks)
			if found != tc.found || got != tc.want {
				t.Fatalf("ReleaseYearConsensus = (%q, %v), want (%q, %v)", got, found, tc.want, tc.found)
			}
		})
	}
}

func TestMostFrequentYear(t *testing.T) {
	tracks := tracksWithYears("1975", "1975", "2005", "")
	got, found := MostFrequentYear(tracks)
	if !found || got != "1975" {
		t.Fatalf("MostFrequentYear = (%q, %v), want (1975, true)", got, found)
	}
	if _, found := MostFrequentYear(tracksWithYears("", "0")); found {
		t.Fatal("expected no most frequent year")
	}
}
