// Package cache provides the content-addressed analysis cache. Caching is a
// pure optimization: the pipeline behaves identically (modulo provider cost)
// whether the cache is disabled, empty, or fully populated, so every storage
// failure here degrades to a miss instead of propagating.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/models"
	"github.com/BinaryFighter-01/commentiq/internal/storage"
)

// Cache maps comment-content fingerprints to analysis results with TTL expiry
type Cache struct {
	store   storage.Store
	enabled bool
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache over the given store
func New(store storage.Store, enabled bool, ttl time.Duration) *Cache {
	return &Cache{
		store:   store,
		enabled: enabled,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached analysis for content, if present and not expired.
// Expired entries are deleted on read (lazy expiry); live entries have their
// expiry refreshed to now+TTL.
func (c *Cache) Get(ctx context.Context, content string) (*models.AnalysisResult, bool) {
	if !c.enabled {
		return nil, false
	}

	contentHash := HashContent(content)

	entry, err := c.store.GetCacheEntry(ctx, contentHash)
	if err != nil {
		logrus.Errorf("Cache read failed, treating as miss: %v", err)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	if c.now().After(entry.ExpiresAt) {
		if err := c.store.DeleteCacheEntry(ctx, contentHash); err != nil {
			logrus.Errorf("Failed to delete expired cache entry %s: %v", contentHash[:8], err)
		}
		return nil, false
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(entry.Payload, &result); err != nil {
		logrus.Errorf("Failed to decode cached analysis %s, treating as miss: %v", contentHash[:8], err)
		return nil, false
	}

	// A hit keeps the entry warm
	entry.ExpiresAt = c.now().Add(c.ttl)
	if err := c.store.UpsertCacheEntry(ctx, entry); err != nil {
		logrus.Errorf("Failed to refresh cache expiry for %s: %v", contentHash[:8], err)
	}

	logrus.Debugf("Cache hit for %s", contentHash[:8])
	return &result, true
}

// Put stores the analysis for content with expiry now+TTL. Upsert semantics
// guarantee at most one entry per fingerprint even when concurrent analyses
// of identical text race; the last write wins. Write failures are logged and
// swallowed so a broken cache never aborts the pipeline.
func (c *Cache) Put(ctx context.Context, content string, result *models.AnalysisResult, platform models.Platform) {
	if !c.enabled {
		return
	}

	contentHash := HashContent(content)

	payload, err := json.Marshal(result)
	if err != nil {
		logrus.Errorf("Failed to encode analysis for cache %s: %v", contentHash[:8], err)
		return
	}

	entry := &models.CacheEntry{
		ContentHash: contentHash,
		Payload:     payload,
		Platform:    platform,
		ExpiresAt:   c.now().Add(c.ttl),
	}

	if err := c.store.UpsertCacheEntry(ctx, entry); err != nil {
		logrus.Errorf("Cache write failed for %s: %v", contentHash[:8], err)
		return
	}

	logrus.Debugf("Cached analysis for %s", contentHash[:8])
}

// Sweep deletes every expired entry and returns the count removed. Purely an
// optimization; Get self-heals without it.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	count, err := c.store.DeleteExpiredCacheEntries(ctx, c.now())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		logrus.Infof("Swept %d expired cache entries", count)
	}
	return count, nil
}
