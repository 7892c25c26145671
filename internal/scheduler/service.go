// Package scheduler runs the periodic maintenance jobs: the cache expiry
// sweep and the daily usage counter reset.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/cache"
	"github.com/BinaryFighter-01/commentiq/internal/config"
	"github.com/BinaryFighter-01/commentiq/internal/usage"
)

// Service handles scheduling of maintenance tasks
type Service struct {
	config  *config.Config
	cache   *cache.Cache
	limiter *usage.Limiter
	cron    *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, c *cache.Cache, limiter *usage.Limiter) *Service {
	return &Service{
		config:  cfg,
		cache:   c,
		limiter: limiter,
		// Quota days are UTC days; never let the host zone shift the jobs
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
	}
}

// Start registers the maintenance jobs and starts the cron loop. The sweep
// is an optimization: reads already treat expired entries as misses, so a
// missed sweep never serves stale data, it only leaves rows on disk longer.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.SweepSchedule, func() {
		removed, err := s.cache.Sweep(context.Background())
		if err != nil {
			logrus.Errorf("Cache sweep failed: %v", err)
			return
		}
		if removed > 0 {
			logrus.Infof("Cache sweep removed %d expired entries", removed)
		}
	})
	if err != nil {
		return err
	}

	// Daily quotas roll over at the UTC day boundary
	_, err = s.cron.AddFunc("0 0 0 * * *", func() {
		logrus.Info("Resetting daily usage counters")
		reset, err := s.limiter.ResetDaily(context.Background())
		if err != nil {
			logrus.Errorf("Daily usage reset failed: %v", err)
			return
		}
		logrus.Infof("Reset daily usage for %d users", reset)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (cache sweep: %s, usage reset: midnight UTC)", s.config.SweepSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
