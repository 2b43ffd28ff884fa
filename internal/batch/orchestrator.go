package batch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"yearfix/internal/config"
	"yearfix/internal/logging"
	"yearfix/internal/music"
	"yearfix/internal/pending"
)

// Outcome classifies what happened to one album.
type Outcome string

const (
	// OutcomeUpdated means at least one track year was written.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged means the year was confirmed with nothing to write.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeSkipped means a guard or cooldown stopped the album.
	OutcomeSkipped Outcome = "skipped"
	// OutcomePending means the album was marked for later verification.
	OutcomePending Outcome = "pending"
	// OutcomeUnresolved means no year could be determined this pass.
	OutcomeUnresolved Outcome = "unresolved"
)

// AlbumResult reports one album's trip through the pipeline.
type AlbumResult struct {
	Outcome       Outcome
	Year          string
	Source        string
	TracksUpdated int
	TracksFailed  int
}

// AlbumResolver runs the per-album resolution pipeline after the guards
// pass. Implemented by the resolve service.
type AlbumResolver interface {
	ResolveAlbum(ctx context.Context, key music.AlbumKey, tracks []music.Track) (AlbumResult, error)
}

// Summary aggregates one orchestrator pass.
type Summary struct {
	Albums        int
	Updated       int
	Unchanged     int
	Skipped       int
	Pending       int
	Unresolved    int
	Failed        int
	TracksUpdated int
	TracksFailed  int
}

// Orchestrator drives albums through guards and the resolver using the
// configured scheduling strategy.
type Orchestrator struct {
	cfg      *config.Config
	resolver AlbumResolver
	store    *pending.Store
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithSleeper overrides inter-batch sleeping (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithClock overrides the orchestrator's time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New constructs an orchestrator.
func New(cfg *config.Config, resolver AlbumResolver, store *pending.Store, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		resolver: resolver,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "batch"),
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every album and returns the pass summary. The strategy is
// fixed at call time from configuration: sequential when the concurrency
// limit is one and adaptive delay is off, bounded-concurrent otherwise.
func (o *Orchestrator) Run(ctx context.Context, albums map[music.AlbumKey][]music.Track) Summary {
	keys := music.SortedKeys(albums)
	total := len(keys)
	runLogger := o.logger.With(logging.String(logging.FieldRunID, uuid.NewString()[:8]))

	runLogger.Info("year resolution pass starting",
		logging.Int("albums", total),
		logging.Bool("sequential", o.cfg.SequentialMode()),
		logging.Int("concurrency", o.cfg.ConcurrencyLimit()))

	var (
		summary   Summary
		summaryMu sync.Mutex
		processed atomic.Int64
	)
	summary.Albums = total
	checkpoint := total / 10
	if checkpoint < 1 {
		checkpoint = 1
	}

	record := func(result AlbumResult, err error) {
		summaryMu.Lock()
		switch {
		case err != nil:
			summary.Failed++
		case result.Outcome == OutcomeUpdated:
			summary.Updated++
		case result.Outcome == OutcomeUnchanged:
			summary.Unchanged++
		case result.Outcome == OutcomeSkipped:
			summary.Skipped++
		case result.Outcome == OutcomePending:
			summary.Pending++
		default:
			summary.Unresolved++
		}
		summary.TracksUpdated += result.TracksUpdated
		summary.TracksFailed += result.TracksFailed
		summaryMu.Unlock()

		done := processed.Add(1)
		if done%int64(checkpoint) == 0 || done == int64(total) {
			runLogger.Info("progress",
				logging.Int64("processed", done),
				logging.Int("total", total))
		}
	}

	batchSize := o.cfg.YearRetrieval.Processing.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	if o.cfg.SequentialMode() {
		o.runSequential(ctx, runLogger, keys, albums, batchSize, record)
	} else {
		o.runConcurrent(ctx, runLogger, keys, albums, batchSize, record)
	}

	runLogger.Info("year resolution pass finished",
		logging.Int("updated", summary.Updated),
		logging.Int("unchanged", summary.Unchanged),
		logging.Int("skipped", summary.Skipped),
		logging.Int("pending", summary.Pending),
		logging.Int("unresolved", summary.Unresolved),
		logging.Int("failed", summary.Failed),
		logging.Int("tracks_updated", summary.TracksUpdated),
		logging.Int("tracks_failed", summary.TracksFailed))
	return summary
}

// runSequential walks albums batch-by-batch on the calling goroutine,
// pausing between batches.
func (o *Orchestrator) runSequential(ctx context.Context, logger *slog.Logger, keys []music.AlbumKey, albums map[music.AlbumKey][]music.Track, batchSize int, record func(AlbumResult, error)) {
	delay := time.Duration(o.cfg.YearRetrieval.Processing.DelayBetweenBatches) * time.Second
	for start := 0; start < len(keys); start += batchSize {
		if ctx.Err() != nil {
			return
		}
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		for _, key := range keys[start:end] {
			record(o.processAlbum(ctx, logger, key, albums[key]))
		}
		if end < len(keys) && delay > 0 {
			if err := o.sleep(ctx, delay); err != nil {
				return
			}
		}
	}
}

// runConcurrent dispatches each batch as a structured group gated by a
// counting semaphore. Every album in a batch completes before the next batch
// starts; a failing album does not cancel its siblings.
func (o *Orchestrator) runConcurrent(ctx context.Context, logger *slog.Logger, keys []music.AlbumKey, albums map[music.AlbumKey][]music.Track, batchSize int, record func(AlbumResult, error)) {
	sem := semaphore.NewWeighted(int64(o.cfg.ConcurrencyLimit()))
	for start := 0; start < len(keys); start += batchSize {
		if ctx.Err() != nil {
			return
		}
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}

		group := new(errgroup.Group)
		for _, key := range keys[start:end] {
			key := key
			group.Go(func() error {
				if err := sem.Acquire(ctx, 1); err != nil {
					record(AlbumResult{Outcome: OutcomeSkipped}, err)
					return nil
				}
				result, err := func() (AlbumResult, error) {
					defer sem.Release(1)
					return o.processAlbum(ctx, logger, key, albums[key])
				}()
				record(result, err)
				return nil
			})
		}
		_ = group.Wait()
	}
}

// processAlbum runs the guards, then hands the surviving tracks to the
// resolver. Errors are returned for counting, never propagated further.
func (o *Orchestrator) processAlbum(ctx context.Context, logger *slog.Logger, key music.AlbumKey, tracks []music.Track) (AlbumResult, error) {
	eligible, guarded, ok := o.applyGuards(ctx, key, tracks)
	if !ok {
		return guarded, nil
	}

	result, err := o.resolver.ResolveAlbum(ctx, key, eligible)
	if err != nil {
		logger.Warn("album resolution failed",
			logging.String(logging.FieldArtist, key.Artist),
			logging.String(logging.FieldAlbum, key.Album),
			logging.Error(err))
		return result, err
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
