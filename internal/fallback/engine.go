// Package fallback decides whether a year proposed by an external source
// should be applied to an album, rejected, or applied under protest. The
// decision tree runs in a fixed order; the first matching rule wins.
package fallback

import (
	"context"
	"log/slog"
	"strconv"

	"yearfix/internal/albumtype"
	"yearfix/internal/dominance"
	"yearfix/internal/logging"
	"yearfix/internal/music"
	"yearfix/internal/pending"
)

// Outcome is the tagged decision result.
type Outcome int

const (
	// Apply means the proposed year should be written to the album's tracks.
	Apply Outcome = iota
	// Reject means the existing year is preserved unchanged.
	Reject
)

func (o Outcome) String() string {
	if o == Apply {
		return "apply"
	}
	return "reject"
}

// Decision reports what the engine decided and why.
type Decision struct {
	Outcome Outcome
	Year    string
	// PendingReason is set when the album was marked for verification as a
	// side effect, whether or not the year was applied.
	PendingReason string
}

// Recorder is the slice of the pending store the engine needs.
type Recorder interface {
	MarkForVerification(ctx context.Context, artist, album string, opts pending.MarkOptions) error
}

// Config carries the engine thresholds.
type Config struct {
	// Enabled selects the full decision tree. When false the engine degrades
	// to always-apply, marking non-definitive proposals for verification.
	Enabled bool
	// AbsurdYearThreshold rejects proposed years below it when no existing
	// year backs them up.
	AbsurdYearThreshold int
	// YearDifferenceThreshold is the existing-vs-proposed gap beyond which a
	// change is suspicious.
	YearDifferenceThreshold int
}

// Engine applies the decision tree. Construct with New.
type Engine struct {
	cfg     Config
	pending Recorder
	logger  *slog.Logger
}

// New constructs a fallback engine. A nil recorder disables pending
// bookkeeping (useful in tests exercising only the tree shape).
func New(cfg Config, recorder Recorder, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		pending: recorder,
		logger:  logging.NewComponentLogger(logger, "fallback"),
	}
}

// Decide evaluates a proposed year against the album's current state.
// Re-applying the same proposal to an already-resolved album reproduces the
// same decision; nothing in the tree depends on prior decisions.
func (e *Engine) Decide(ctx context.Context, artist, album, proposedYear string, isDefinitive bool, tracks []music.Track) Decision {
	if !e.cfg.Enabled {
		return e.decideDegraded(ctx, artist, album, proposedYear, isDefinitive)
	}

	if isDefinitive {
		return Decision{Outcome: Apply, Year: proposedYear}
	}

	existingYear, hasExisting := dominance.MostFrequentYear(tracks)
	proposed, proposedOK := music.ParseYear(proposedYear)

	if proposedOK && proposed < e.cfg.AbsurdYearThreshold && !hasExisting {
		reason := pending.ReasonAbsurdYearNoExisting
		e.mark(ctx, artist, album, reason, absurdYearMetadata{ProposedYear: proposedYear}.Metadata(), 0)
		return Decision{Outcome: Reject, PendingReason: reason}
	}

	if !hasExisting {
		return Decision{Outcome: Apply, Year: proposedYear}
	}

	if detected := albumtype.Detect(album); detected.Type != albumtype.TypeNormal {
		reason := pending.SpecialReason(detected.Type)
		meta := specialAlbumMetadata{
			ExistingYear: existingYear,
			ProposedYear: proposedYear,
			Pattern:      detected.Pattern,
		}
		e.mark(ctx, artist, album, reason, meta.Metadata(), 0)
		if detected.Strategy == albumtype.StrategyMarkAndSkip {
			return Decision{Outcome: Reject, Year: existingYear, PendingReason: reason}
		}
		// Reissue: the publishing year is usually the legitimate one.
		return Decision{Outcome: Apply, Year: proposedYear, PendingReason: reason}
	}

	existing, existingOK := music.ParseYear(existingYear)
	if proposedOK && existingOK && abs(existing-proposed) > e.cfg.YearDifferenceThreshold {
		reason := pending.ReasonSuspiciousYearChange
		meta := yearChangeMetadata{ExistingYear: existingYear, ProposedYear: proposedYear}
		e.mark(ctx, artist, album, reason, meta.Metadata(), 0)
		return Decision{Outcome: Reject, Year: existingYear, PendingReason: reason}
	}

	return Decision{Outcome: Apply, Year: proposedYear}
}

// decideDegraded is the behavior with the fallback system disabled: every
// proposal is applied, and non-definitive ones are additionally marked for
// verification. No rejection path exists in this mode.
func (e *Engine) decideDegraded(ctx context.Context, artist, album, proposedYear string, isDefinitive bool) Decision {
	decision := Decision{Outcome: Apply, Year: proposedYear}
	if !isDefinitive {
		decision.PendingReason = pending.ReasonNoYearFound
		e.mark(ctx, artist, album, decision.PendingReason, pending.Metadata{"proposed_year": proposedYear}, 0)
	}
	return decision
}

func (e *Engine) mark(ctx context.Context, artist, album, reason string, metadata pending.Metadata, recheckDays int) {
	if e.pending == nil {
		return
	}
	err := e.pending.MarkForVerification(ctx, artist, album, pending.MarkOptions{
		Reason:      reason,
		Metadata:    metadata,
		RecheckDays: recheckDays,
	})
	if err != nil {
		e.logger.Warn("mark for verification failed",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album),
			logging.String(logging.FieldReason, reason),
			logging.Error(err))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Typed per-reason metadata payloads; the store only sees the flattened map.

type specialAlbumMetadata struct {
	ExistingYear string
	ProposedYear string
	Pattern      string
}

func (m specialAlbumMetadata) Metadata() pending.Metadata {
	return pending.Metadata{
		"existing_year": m.ExistingYear,
		"proposed_year": m.ProposedYear,
		"pattern":       m.Pattern,
	}
}

type yearChangeMetadata struct {
	ExistingYear string
	ProposedYear string
}

func (m yearChangeMetadata) Metadata() pending.Metadata {
	diff := ""
	if existing, ok := music.ParseYear(m.ExistingYear); ok {
		if proposed, ok := music.ParseYear(m.ProposedYear); ok {
			diff = strconv.Itoa(abs(existing - proposed))
		}
	}
	return pending.Metadata{
		"existing_year": m.ExistingYear,
		"proposed_year": m.ProposedYear,
		"difference":    diff,
	}
}

type absurdYearMetadata struct {
	ProposedYear string
}

func (m absurdYearMetadata) Metadata() pending.Metadata {
	return pending.Metadata{"proposed_year": m.ProposedYear}
}
