// Package usage tracks per-user analysis consumption against a daily quota.
package usage

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/storage"
)

// Limiter gates new analysis work on a per-user daily maximum. It never
// increments counters itself; charging happens after a batch completes, per
// comment actually analyzed, so a partially completed batch still pays for
// the comments it finished.
type Limiter struct {
	store       storage.Store
	dailyQuota  int
	costPerItem float64
}

// NewLimiter creates a limiter with the configured daily maximum
func NewLimiter(store storage.Store, dailyQuota int, costPerItem float64) *Limiter {
	return &Limiter{
		store:       store,
		dailyQuota:  dailyQuota,
		costPerItem: costPerItem,
	}
}

// CheckQuota reports whether the user may start new analysis work
func (l *Limiter) CheckQuota(ctx context.Context, userID string) (bool, error) {
	metrics, err := l.store.GetUsage(ctx, userID)
	if err != nil {
		return false, err
	}

	if metrics.AnalysesThisDay >= l.dailyQuota {
		logrus.Infof("User %s reached daily analysis quota (%d/%d)", userID, metrics.AnalysesThisDay, l.dailyQuota)
		return false, nil
	}

	return true, nil
}

// Record charges the user for a completed (possibly partial) batch
func (l *Limiter) Record(ctx context.Context, userID string, analyzed, commentsFetched int) error {
	if analyzed == 0 && commentsFetched == 0 {
		return nil
	}
	return l.store.IncrementUsage(ctx, userID, analyzed, commentsFetched, float64(analyzed)*l.costPerItem)
}

// ResetDaily zeroes every user's daily counter; invoked by the scheduler at
// the UTC day boundary
func (l *Limiter) ResetDaily(ctx context.Context) (int, error) {
	return l.store.ResetDailyUsage(ctx)
}
