package storage

import (
	"context"
	"time"

	"github.com/BinaryFighter-01/commentiq/internal/models"
)

// Store defines the contract for the persistent record store. Lookups that
// find nothing return (nil, nil) so callers can distinguish absence from
// storage failure.
type Store interface {
	// Analysis cache entries, keyed by content hash
	GetCacheEntry(ctx context.Context, contentHash string) (*models.CacheEntry, error)
	UpsertCacheEntry(ctx context.Context, entry *models.CacheEntry) error
	DeleteCacheEntry(ctx context.Context, contentHash string) error
	DeleteExpiredCacheEntries(ctx context.Context, now time.Time) (int, error)

	// Video/post metadata; upsert keyed by (platform, video_id), fills in
	// the internal record id on the passed value
	UpsertVideo(ctx context.Context, video *models.VideoMetadata) error
	GetVideo(ctx context.Context, id string) (*models.VideoMetadata, error)

	// Raw comments; upsert keyed by (platform, id)
	UpsertComment(ctx context.Context, comment *models.Comment) error

	// Per-comment analyses
	InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error
	ListAnalyses(ctx context.Context, videoID string) ([]models.AnalysisRecord, error)

	// Per-video rollups; upsert keyed by video id
	GetAggregation(ctx context.Context, videoID string) (*models.Aggregation, error)
	UpsertAggregation(ctx context.Context, agg *models.Aggregation) error

	// Per-user usage counters
	GetUsage(ctx context.Context, userID string) (*models.UsageMetrics, error)
	IncrementUsage(ctx context.Context, userID string, analyses, commentsFetched int, costUSD float64) error
	ResetDailyUsage(ctx context.Context) (int, error)

	Close() error
}
