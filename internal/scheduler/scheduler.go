// Package scheduler runs a job periodically, backing off exponentially
// while it keeps failing.
package scheduler

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"geosite/pkg/logger"

	"go.uber.org/zap"
)

// jitterFrac spreads retries by ±20% so parallel deployments do not hammer
// the upstream at the same instant.
const jitterFrac = 0.2

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Config controls the schedule.
type Config struct {
	Interval       time.Duration // delay after a successful run
	InitialBackoff time.Duration // delay after the first failure
	MaxBackoff     time.Duration // upper bound for the failure delay
}

// Start runs job immediately and then keeps running it until ctx is done.
// After a success the next run waits Interval; after the n-th consecutive
// failure it waits min(InitialBackoff*2^(n-1), MaxBackoff) with jitter.
// It returns ctx.Err() once ctx is done.
func Start(ctx context.Context, cfg Config, job Job) error {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Minute
	}

	var failures int
	for {
		wait := cfg.Interval
		err := job(ctx)
		if ctx.Err() != nil {
			logger.Info(ctx, "scheduler stopped", zap.Error(ctx.Err()))

			return ctx.Err()
		}

		if err != nil {
			failures++
			wait = calcBackoff(cfg.InitialBackoff, cfg.MaxBackoff, failures)
			logger.Warn(ctx, "scheduled run failed",
				zap.Int("attempt", failures),
				zap.Duration("backoff", wait),
				zap.Error(err))
		} else {
			if failures > 0 {
				logger.Info(ctx, "scheduled run recovered", zap.Int("failures", failures))
			}
			failures = 0
			logger.Info(ctx, "next scheduled run", zap.Time("at", time.Now().Add(wait)))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info(ctx, "scheduler stopped", zap.Error(ctx.Err()))

			return ctx.Err()
		case <-timer.C:
		}
	}
}

func calcBackoff(initial, maxBackoff time.Duration, failures int) time.Duration {
	backoff := maxBackoff
	if f := float64(initial) * math.Pow(2, float64(failures-1)); f < float64(maxBackoff) {
		backoff = time.Duration(f)
	}

	jitter := time.Duration((rand.Float64()*2 - 1) * jitterFrac * float64(backoff)) //nolint: gosec

	return backoff + jitter
}
