// Package resolve is the orchestrating façade of the year engine: per album
// it short-circuits on locally trustworthy years, then consults the cache,
// then the external lookup, routes the proposal through the fallback
// decision engine, and finally applies the resolved year in bulk.
package resolve

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"yearfix/internal/batch"
	"yearfix/internal/bridge"
	"yearfix/internal/config"
	"yearfix/internal/dominance"
	"yearfix/internal/fallback"
	"yearfix/internal/logging"
	"yearfix/internal/music"
	"yearfix/internal/pending"
	"yearfix/internal/updater"
)

// Service resolves one album at a time. It implements batch.AlbumResolver.
type Service struct {
	cfg     *config.Config
	store   *pending.Store
	cache   bridge.YearCache
	lookup  bridge.AlbumLookup
	engine  *fallback.Engine
	bulk    *updater.BulkUpdater
	limiter *rate.Limiter
	logger  *slog.Logger

	updaterOpts []updater.Option
}

// Option customizes service construction.
type Option func(*Service)

// WithUpdaterOptions forwards options to the internal bulk updater.
func WithUpdaterOptions(opts ...updater.Option) Option {
	return func(s *Service) {
		s.updaterOpts = append(s.updaterOpts, opts...)
	}
}

// New wires the façade. The bulk updater's fan-out width is composed
// conservatively from the album concurrency limit so the two bounds do not
// multiply into the external call-rate budget.
func New(cfg *config.Config, store *pending.Store, cache bridge.YearCache, lookup bridge.AlbumLookup, tracks bridge.TrackUpdater, logger *slog.Logger, opts ...Option) *Service {
	logger = logging.NewComponentLogger(logger, "resolve")

	s := &Service{
		cfg:    cfg,
		store:  store,
		cache:  cache,
		lookup: lookup,
		logger: logger,
		limiter: rate.NewLimiter(
			rate.Limit(cfg.RateLimits.ConcurrentAPICalls),
			cfg.RateLimits.ConcurrentAPICalls,
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = fallback.New(fallback.Config{
		Enabled:                 cfg.Fallback.Enabled,
		AbsurdYearThreshold:     cfg.Logic.AbsurdYearThreshold,
		YearDifferenceThreshold: cfg.Fallback.YearDifferenceThreshold,
	}, store, logger)

	proc := cfg.YearRetrieval.Processing
	s.bulk = updater.New(tracks.UpdateTrackYear, updater.Config{
		MaxAttempts: proc.MaxRetries,
		BaseDelay:   time.Duration(proc.RetryDelaySeconds) * time.Second,
		Concurrency: composedUpdateConcurrency(cfg.ConcurrencyLimit()),
	}, logger, s.updaterOpts...)

	return s
}

// composedUpdateConcurrency halves the album limit for per-track fan-out,
// keeping worst-case in-flight external calls well under limit squared.
func composedUpdateConcurrency(albumLimit int) int {
	if albumLimit <= 1 {
		return 1
	}
	width := albumLimit / 2
	if width < 1 {
		width = 1
	}
	return width
}

// Run groups tracks into albums and drives a full pass with the configured
// batch strategy.
func (s *Service) Run(ctx context.Context, tracks []music.Track, opts ...batch.Option) batch.Summary {
	albums := music.GroupByAlbum(tracks)
	orchestrator := batch.New(s.cfg, s, s.store, s.logger, opts...)
	return orchestrator.Run(ctx, albums)
}

// ResolveAlbum runs the pipeline for one album. Tracks have already passed
// the orchestrator's guards.
func (s *Service) ResolveAlbum(ctx context.Context, key music.AlbumKey, tracks []music.Track) (batch.AlbumResult, error) {
	albumLogger := s.logger.With(
		logging.String(logging.FieldArtist, key.Artist),
		logging.String(logging.FieldAlbum, key.Album))

	// Albums marked pending sit out until their recheck interval elapses.
	if s.store != nil && s.store.Contains(key.Artist, key.Album) && !s.store.IsVerificationNeeded(key.Artist, key.Album) {
		return batch.AlbumResult{Outcome: batch.OutcomeSkipped, Source: "pending_cooldown"}, nil
	}

	if year, ok := dominance.Dominant(tracks); ok {
		albumLogger.Debug("dominant year found", logging.String(logging.FieldYear, year))
		return s.applyConfirmed(ctx, key, tracks, year, "dominant")
	}

	if year, ok := dominance.ReleaseYearConsensus(tracks); ok {
		albumLogger.Debug("release year consensus", logging.String(logging.FieldYear, year))
		return s.applyConfirmed(ctx, key, tracks, year, "release_year")
	}

	if s.cache != nil {
		if year, ok := s.cache.GetCachedYear(key.Artist, key.Album); ok {
			// Cached years were confirmed when stored; treat as definitive.
			return s.applyConfirmed(ctx, key, tracks, year, "cache")
		}
	}

	lookup, err := s.lookupYear(ctx, key)
	if err != nil {
		// One attempt per album per pass; a lookup failure leaves the album
		// unresolved without a pending mark (guards may already have one).
		albumLogger.Warn("external lookup failed", logging.Error(err))
		return batch.AlbumResult{Outcome: batch.OutcomeUnresolved, Source: "lookup_error"}, nil
	}
	if lookup.Year == "" {
		if s.store != nil {
			_ = s.store.MarkForVerification(ctx, key.Artist, key.Album, pending.MarkOptions{
				Reason: pending.ReasonNoYearFound,
			})
		}
		return batch.AlbumResult{Outcome: batch.OutcomePending, Source: pending.ReasonNoYearFound}, nil
	}

	decision := s.engine.Decide(ctx, key.Artist, key.Album, lookup.Year, lookup.Definitive, tracks)
	if decision.Outcome == fallback.Reject {
		albumLogger.Info("proposed year rejected",
			logging.String("proposed_year", lookup.Year),
			logging.String(logging.FieldReason, decision.PendingReason))
		return batch.AlbumResult{Outcome: batch.OutcomePending, Source: decision.PendingReason}, nil
	}

	result, err := s.applyYear(ctx, key, tracks, decision.Year, "lookup")
	if err != nil {
		return result, err
	}
	// MarkAndUpdate leaves the verification entry in place deliberately.
	if decision.PendingReason == "" {
		s.confirm(ctx, key, decision.Year)
	} else if s.cache != nil {
		_ = s.cache.StoreCachedYear(key.Artist, key.Album, decision.Year)
	}
	return result, nil
}

// lookupYear paces external calls through the shared rate limiter and
// performs a single lookup attempt.
func (s *Service) lookupYear(ctx context.Context, key music.AlbumKey) (bridge.Lookup, error) {
	if s.lookup == nil {
		return bridge.Lookup{}, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return bridge.Lookup{}, err
	}
	return s.lookup.LookupAlbumYear(ctx, key.Artist, key.Album)
}

// applyConfirmed applies a year the engine already trusts and completes the
// bookkeeping: cache write-through and pending removal.
func (s *Service) applyConfirmed(ctx context.Context, key music.AlbumKey, tracks []music.Track, year, source string) (batch.AlbumResult, error) {
	result, err := s.applyYear(ctx, key, tracks, year, source)
	if err != nil {
		return result, err
	}
	s.confirm(ctx, key, year)
	return result, nil
}

// applyYear bulk-updates every track whose year differs.
func (s *Service) applyYear(ctx context.Context, key music.AlbumKey, tracks []music.Track, year, source string) (batch.AlbumResult, error) {
	var ids []string
	for _, track := range tracks {
		if track.Year != year {
			ids = append(ids, track.ID)
		}
	}
	if len(ids) == 0 {
		return batch.AlbumResult{Outcome: batch.OutcomeUnchanged, Year: year, Source: source}, nil
	}

	applied := s.bulk.Apply(ctx, ids, year)
	for i := range tracks {
		if tracks[i].Year != year {
			tracks[i].Year = year
		}
	}

	outcome := batch.OutcomeUpdated
	if applied.Success == 0 {
		outcome = batch.OutcomeUnresolved
	}
	return batch.AlbumResult{
		Outcome:       outcome,
		Year:          year,
		Source:        source,
		TracksUpdated: applied.Success,
		TracksFailed:  applied.Failure,
	}, nil
}

// confirm records a resolved year: write-through to the cache and removal of
// any pending entry.
func (s *Service) confirm(ctx context.Context, key music.AlbumKey, year string) {
	if s.cache != nil {
		if err := s.cache.StoreCachedYear(key.Artist, key.Album, year); err != nil {
			s.logger.Warn("cache write failed",
				logging.String(logging.FieldArtist, key.Artist),
				logging.String(logging.FieldAlbum, key.Album),
				logging.Error(err))
		}
	}
	if s.store != nil {
		_ = s.store.RemoveFromPending(ctx, key.Artist, key.Album)
	}
}
