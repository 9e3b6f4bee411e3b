package jobs

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper is a cache that can drop its expired entries.
type Sweeper interface {
	DeleteExpired() int
}

// CacheSweepJob periodically removes expired page cache entries.
type CacheSweepJob struct {
	cache  Sweeper
	logger *slog.Logger
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewCacheSweepJob creates a new cache sweep job
func NewCacheSweepJob(cache Sweeper, interval time.Duration, logger *slog.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		cache:  cache,
		logger: logger,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
}

// Start begins the sweep job
func (j *CacheSweepJob) Start() {
	j.logger.Info("cache sweep job started")

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.sweep()
			case <-j.done:
				j.logger.Info("cache sweep job stopped")
				return
			}
		}
	}()
}

// Stop stops the sweep job. It is safe to call more than once, and
// before Start.
func (j *CacheSweepJob) Stop() {
	j.once.Do(func() {
		j.ticker.Stop()
		close(j.done)
	})
}

func (j *CacheSweepJob) sweep() {
	if removed := j.cache.DeleteExpired(); removed > 0 {
		j.logger.Debug("swept expired cache entries", "removed", removed)
	}
}
