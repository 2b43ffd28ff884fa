// Package updater applies one resolved year to a set of track ids through
// the host-application collaborator, retrying per track with exponential
// backoff and jitter. Individual failures are counted, never propagated; a
// bulk update always runs to completion.
package updater

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"yearfix/internal/logging"
)

const (
	// backoffCap is the hard safety ceiling on a single retry delay.
	backoffCap     = 10 * time.Second
	jitterFraction = 0.10
)

// UpdateFunc writes a year to one track. A false return without error is an
// explicit no-op failure (retried without backoff); an error is a transport
// failure (retried with backoff).
type UpdateFunc func(ctx context.Context, trackID, year string) (bool, error)

// Config carries updater tuning.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Concurrency int
}

// Result aggregates a bulk update.
type Result struct {
	Success int
	Failure int
}

// BulkUpdater fans out per-track updates with bounded concurrency.
type BulkUpdater struct {
	update      UpdateFunc
	maxAttempts int
	baseDelay   time.Duration
	concurrency int
	logger      *slog.Logger

	sleep  func(context.Context, time.Duration) error
	jitter func() float64
}

// Option customizes a BulkUpdater.
type Option func(*BulkUpdater)

// WithSleeper overrides how backoff sleeps are performed (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(u *BulkUpdater) {
		if sleep != nil {
			u.sleep = sleep
		}
	}
}

// WithJitterSource overrides the jitter source; the function must return
// values in [-1, 1).
func WithJitterSource(jitter func() float64) Option {
	return func(u *BulkUpdater) {
		if jitter != nil {
			u.jitter = jitter
		}
	}
}

// New constructs a BulkUpdater around the given update function.
func New(update UpdateFunc, cfg Config, logger *slog.Logger, opts ...Option) *BulkUpdater {
	u := &BulkUpdater{
		update:      update,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		concurrency: cfg.Concurrency,
		logger:      logging.NewComponentLogger(logger, "updater"),
		sleep:       sleepContext,
		jitter:      func() float64 { return rand.Float64()*2 - 1 },
	}
	if u.maxAttempts < 1 {
		u.maxAttempts = 1
	}
	if u.baseDelay <= 0 {
		u.baseDelay = time.Second
	}
	if u.concurrency < 1 {
		u.concurrency = 1
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Apply writes year to every track id, fanning out up to the configured
// concurrency. It returns aggregate success and failure counts.
func (u *BulkUpdater) Apply(ctx context.Context, trackIDs []string, year string) Result {
	var success, failure atomic.Int64

	sem := semaphore.NewWeighted(int64(u.concurrency))
	var wg sync.WaitGroup
	for _, trackID := range trackIDs {
		if trackID == "" {
			failure.Add(1)
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; everything not yet dispatched is a failure.
			failure.Add(1)
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)
			if u.updateOne(ctx, id, year) {
				success.Add(1)
			} else {
				failure.Add(1)
			}
		}(trackID)
	}
	wg.Wait()

	return Result{Success: int(success.Load()), Failure: int(failure.Load())}
}

// updateOne retries a single track until success or attempts run out.
func (u *BulkUpdater) updateOne(ctx context.Context, trackID, year string) bool {
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		ok, err := u.update(ctx, trackID, year)
		if err == nil && ok {
			return true
		}

		if err != nil {
			u.logger.Debug("track update error",
				logging.String("track_id", trackID),
				logging.Int("attempt", attempt),
				logging.Error(err))
			if attempt < u.maxAttempts {
				if sleepErr := u.sleep(ctx, u.backoffDelay(attempt)); sleepErr != nil {
					return false
				}
			}
			continue
		}

		// Explicit false: the host application refused the write without a
		// transport failure. Retry immediately.
		u.logger.Debug("track update returned no-op",
			logging.String("track_id", trackID),
			logging.Int("attempt", attempt))
	}

	u.logger.Warn("track update failed after retries",
		logging.String("track_id", trackID),
		logging.String(logging.FieldYear, year),
		logging.Int("attempts", u.maxAttempts))
	return false
}

// backoffDelay computes min(base, cap) * 2^(attempt-1), clamps to the cap,
// and applies ±10% uniform jitter.
func (u *BulkUpdater) backoffDelay(attempt int) time.Duration {
	base := u.baseDelay
	if base > backoffCap {
		base = backoffCap
	}
	delay := base << (attempt - 1)
	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}
	jittered := float64(delay) * (1 + jitterFraction*u.jitter())
	return time.Duration(jittered)
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
