package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimitRetention is how long finished rate-limit windows are kept.
const RateLimitRetention = 24 * time.Hour

const expiryBatch = 100

type RateLimitCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

type OverdueExpirer interface {
	ExpireOverdue(ctx context.Context, batch int) (int, error)
}

type Config struct {
	CleanupInterval time.Duration
	ExpiryInterval  time.Duration
}

// Runner owns the periodic maintenance tasks.
type Runner struct {
	limits   RateLimitCleaner
	bookings OverdueExpirer
	cfg      Config
	log      *zap.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

func NewRunner(limits RateLimitCleaner, bookings OverdueExpirer, cfg Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		limits:   limits,
		bookings: bookings,
		cfg:      cfg,
		log:      log.Named("jobs"),
		stopCh:   make(chan struct{}),
	}
}

// CleanupRateLimits removes rate-limit windows older than RateLimitRetention.
func (r *Runner) CleanupRateLimits(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := r.limits.Cleanup(ctx, RateLimitRetention)
	if err != nil {
		r.log.Error("rate limit cleanup failed", zap.Error(err))
		return 0, err
	}
	r.log.Info("rate limit cleanup completed", zap.Int64("deleted", deleted), zap.Duration("took", time.Since(start)))
	return deleted, nil
}

// ExpireOverdue cancels unpaid bookings past their DP deadline, batch by batch,
// until a batch comes back short.
func (r *Runner) ExpireOverdue(ctx context.Context) (int, error) {
	start := time.Now()
	total := 0
	for {
		n, err := r.bookings.ExpireOverdue(ctx, expiryBatch)
		total += n
		if err != nil {
			r.log.Error("overdue expiry failed", zap.Int("expired", total), zap.Error(err))
			return total, err
		}
		if n < expiryBatch || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		r.log.Info("overdue bookings expired", zap.Int("expired", total), zap.Duration("took", time.Since(start)))
	}
	return total, nil
}

// Start launches one goroutine per task. Tasks stop on Stop or when ctx is done.
func (r *Runner) Start(ctx context.Context) {
	r.schedule(ctx, "rate_limit_cleanup", r.cfg.CleanupInterval, func(ctx context.Context) {
		_, _ = r.CleanupRateLimits(ctx)
	})
	r.schedule(ctx, "overdue_expiry", r.cfg.ExpiryInterval, func(ctx context.Context) {
		_, _ = r.ExpireOverdue(ctx)
	})
}

func (r *Runner) schedule(ctx context.Context, name string, interval time.Duration, task func(context.Context)) {
	if interval <= 0 {
		r.log.Info("task disabled", zap.String("task", name))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				task(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	r.log.Info("task scheduled", zap.String("task", name), zap.Duration("interval", interval))
}

// Stop ends all scheduled tasks and waits for a running one to finish.
func (r *Runner) Stop() {
	r.once.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
