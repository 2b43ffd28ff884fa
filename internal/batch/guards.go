package batch

import (
	"context"
	"strconv"
	"unicode/utf8"

	"yearfix/internal/albumtype"
	"yearfix/internal/logging"
	"yearfix/internal/music"
	"yearfix/internal/pending"
)

// suspiciousNameLimit is the album-name length (in runes, after cleanup)
// below which a name is too short to trust when its tracks disagree on years.
const suspiciousNameLimit = 5

// suspiciousYearSpread is the number of distinct years that, combined with a
// very short album name, marks the album suspicious.
const suspiciousYearSpread = 3

// applyGuards runs the four ordered pre-resolution checks. It returns the
// update-eligible tracks and ok=true when resolution should proceed, or the
// guard's album result and ok=false when the album stops here.
func (o *Orchestrator) applyGuards(ctx context.Context, key music.AlbumKey, tracks []music.Track) ([]music.Track, AlbumResult, bool) {
	eligible := make([]music.Track, 0, len(tracks))
	for _, track := range tracks {
		if track.Status.EligibleForYearUpdate() {
			eligible = append(eligible, track)
		}
	}
	if len(eligible) == 0 {
		return nil, AlbumResult{Outcome: OutcomeSkipped, Source: "no_eligible_tracks"}, false
	}

	if name := albumtype.Normalize(key.Album); utf8.RuneCountInString(name) < suspiciousNameLimit {
		if spread := distinctYears(tracks); spread >= suspiciousYearSpread {
			o.mark(ctx, key, pending.ReasonSuspiciousAlbumName, pending.Metadata{
				"distinct_years": strconv.Itoa(spread),
			}, 0)
			return nil, AlbumResult{Outcome: OutcomePending, Source: pending.ReasonSuspiciousAlbumName}, false
		}
	}

	for _, track := range tracks {
		if track.Status == music.StatusPrerelease {
			o.mark(ctx, key, pending.ReasonPrerelease, pending.Metadata{},
				o.cfg.YearRetrieval.Processing.PrereleaseRecheckDays)
			return nil, AlbumResult{Outcome: OutcomePending, Source: pending.ReasonPrerelease}, false
		}
	}

	horizon := o.now().Year() + o.cfg.Logic.FutureYearTolerance
	for _, track := range tracks {
		if year, ok := track.YearValue(); ok && year > horizon {
			o.mark(ctx, key, pending.ReasonPrerelease, pending.Metadata{
				"future_year": track.Year,
			}, o.cfg.YearRetrieval.Processing.PrereleaseRecheckDays)
			return nil, AlbumResult{Outcome: OutcomePending, Source: "future_year"}, false
		}
	}

	return eligible, AlbumResult{}, true
}

func (o *Orchestrator) mark(ctx context.Context, key music.AlbumKey, reason string, metadata pending.Metadata, recheckDays int) {
	if o.store == nil {
		return
	}
	err := o.store.MarkForVerification(ctx, key.Artist, key.Album, pending.MarkOptions{
		Reason:      reason,
		Metadata:    metadata,
		RecheckDays: recheckDays,
	})
	if err != nil {
		o.logger.Warn("guard mark failed",
			logging.String(logging.FieldArtist, key.Artist),
			logging.String(logging.FieldAlbum, key.Album),
			logging.String(logging.FieldReason, reason),
			logging.Error(err))
	}
}

// distinctYears counts unique non-empty year values across the album.
func distinctYears(tracks []music.Track) int {
	years := make(map[string]struct{})
	for _, track := range tracks {
		if track.HasYear() {
			years[track.Year] = struct{}{}
		}
	}
	return len(years)
}
