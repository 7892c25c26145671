package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinaryFighter-01/commentiq/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSQLiteStore_CacheEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &models.CacheEntry{
		ContentHash: "abc123",
		Payload:     []byte(`{"sentiment":"positive"}`),
		Platform:    models.PlatformYouTube,
		ExpiresAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertCacheEntry(ctx, entry))

	got, err := store.GetCacheEntry(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.ContentHash, got.ContentHash)
	assert.Equal(t, entry.Payload, got.Payload)
	assert.Equal(t, entry.Platform, got.Platform)
	assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSQLiteStore_CacheEntryAbsent(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetCacheEntry(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_CacheEntryUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.CacheEntry{
		ContentHash: "hash1",
		Payload:     []byte(`{"sentiment":"positive"}`),
		Platform:    models.PlatformYouTube,
		ExpiresAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertCacheEntry(ctx, first))

	second := &models.CacheEntry{
		ContentHash: "hash1",
		Payload:     []byte(`{"sentiment":"negative"}`),
		Platform:    models.PlatformReddit,
		ExpiresAt:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertCacheEntry(ctx, second))

	got, err := store.GetCacheEntry(ctx, "hash1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.Payload, got.Payload)
	assert.Equal(t, models.PlatformReddit, got.Platform)
	assert.True(t, second.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSQLiteStore_DeleteExpiredCacheEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*models.CacheEntry{
		{ContentHash: "expired1", Payload: []byte(`{}`), Platform: models.PlatformYouTube, ExpiresAt: now.Add(-2 * time.Hour)},
		{ContentHash: "expired2", Payload: []byte(`{}`), Platform: models.PlatformYouTube, ExpiresAt: now.Add(-time.Minute)},
		{ContentHash: "live", Payload: []byte(`{}`), Platform: models.PlatformYouTube, ExpiresAt: now.Add(time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, store.UpsertCacheEntry(ctx, e))
	}

	count, err := store.DeleteExpiredCacheEntries(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := store.GetCacheEntry(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = store.GetCacheEntry(ctx, "expired1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpsertVideo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video := &models.VideoMetadata{
		VideoID:  "dQw4w9WgXcQ",
		Platform: models.PlatformYouTube,
		Title:    "Test video",
		URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Views:    100,
	}
	require.NoError(t, store.UpsertVideo(ctx, video))
	require.NotEmpty(t, video.ID)
	firstID := video.ID

	// Same (platform, video_id) refreshes the row and keeps the record id
	again := &models.VideoMetadata{
		VideoID:  "dQw4w9WgXcQ",
		Platform: models.PlatformYouTube,
		Title:    "Test video updated",
		URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Views:    250,
	}
	require.NoError(t, store.UpsertVideo(ctx, again))
	assert.Equal(t, firstID, again.ID)

	got, err := store.GetVideo(ctx, firstID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test video updated", got.Title)
	assert.Equal(t, 250, got.Views)

	// Same platform id on another platform is a separate record
	other := &models.VideoMetadata{
		VideoID:  "dQw4w9WgXcQ",
		Platform: models.PlatformReddit,
		Title:    "Same id, different platform",
		URL:      "https://redd.it/dQw4w9WgXcQ",
	}
	require.NoError(t, store.UpsertVideo(ctx, other))
	assert.NotEqual(t, firstID, other.ID)
}

func TestSQLiteStore_GetVideoAbsent(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetVideo(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpsertCommentIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	comment := &models.Comment{
		ID:        "c1",
		VideoID:   "v1",
		Content:   "great video",
		LikeCount: 3,
		CreatedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		Platform:  models.PlatformYouTube,
	}
	require.NoError(t, store.UpsertComment(ctx, comment))

	comment.LikeCount = 7
	require.NoError(t, store.UpsertComment(ctx, comment))
}

func TestSQLiteStore_AnalysesInsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	records := []*models.AnalysisRecord{
		{
			AnalysisResult: models.AnalysisResult{
				Sentiment:      models.SentimentPositive,
				SentimentScore: 0.9,
				Toxicity:       0.1,
				Topics:         []string{"quality"},
				Summary:        "Praises the video",
				KeyPhrases:     []string{"great"},
				Engagement:     models.EngagementHigh,
			},
			UserID: "u1", VideoID: "v1", CommentID: "c1", CreatedAt: base.Add(time.Hour),
		},
		{
			AnalysisResult: models.AnalysisResult{
				Sentiment:  models.SentimentNegative,
				Topics:     []string{},
				KeyPhrases: []string{},
				Engagement: models.EngagementLow,
			},
			UserID: "u1", VideoID: "v1", CommentID: "c2", CreatedAt: base,
		},
		{
			AnalysisResult: models.AnalysisResult{
				Sentiment:  models.SentimentNeutral,
				Topics:     []string{},
				KeyPhrases: []string{},
				Engagement: models.EngagementMedium,
			},
			UserID: "u1", VideoID: "other", CommentID: "c3", CreatedAt: base,
		},
	}
	for _, rec := range records {
		require.NoError(t, store.InsertAnalysis(ctx, rec))
		assert.NotEmpty(t, rec.ID)
	}

	got, err := store.ListAnalyses(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first
	assert.Equal(t, "c2", got[0].CommentID)
	assert.Equal(t, "c1", got[1].CommentID)
	assert.Equal(t, models.SentimentPositive, got[1].Sentiment)
	assert.Equal(t, []string{"quality"}, got[1].Topics)
	assert.InDelta(t, 0.9, got[1].SentimentScore, 1e-9)
}

func TestSQLiteStore_AggregationRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	agg := &models.Aggregation{
		VideoID:          "v1",
		SentimentCounts:  models.SentimentCounts{Positive: 3, Negative: 1},
		EngagementCounts: models.EngagementCounts{High: 2, Medium: 1, Low: 1},
		AverageSentiment: 0.5,
		AverageToxicity:  0.2,
		TopTopics:        []string{"editing", "music"},
		TopPhrases:       []string{"well done"},
		TotalAnalyzed:    4,
		LastUpdated:      time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.UpsertAggregation(ctx, agg))

	got, err := store.GetAggregation(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, agg.SentimentCounts, got.SentimentCounts)
	assert.Equal(t, agg.EngagementCounts, got.EngagementCounts)
	assert.Equal(t, agg.TopTopics, got.TopTopics)
	assert.Equal(t, 4, got.TotalAnalyzed)

	// Recompute fully replaces the row
	agg.SentimentCounts = models.SentimentCounts{Positive: 5, Negative: 2}
	agg.TotalAnalyzed = 7
	require.NoError(t, store.UpsertAggregation(ctx, agg))

	got, err = store.GetAggregation(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.TotalAnalyzed)
	assert.Equal(t, 5, got.SentimentCounts.Positive)
}

func TestSQLiteStore_AggregationAbsent(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetAggregation(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UsageCounters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Unknown user reads as zero counters
	usage, err := store.GetUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.AnalysesThisDay)

	require.NoError(t, store.IncrementUsage(ctx, "u1", 10, 25, 0.10))
	require.NoError(t, store.IncrementUsage(ctx, "u1", 5, 5, 0.05))

	usage, err = store.GetUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15, usage.TotalAnalyses)
	assert.Equal(t, 15, usage.AnalysesThisDay)
	assert.Equal(t, 30, usage.TotalCommentsFetched)
	assert.InDelta(t, 0.15, usage.TotalCostUSD, 1e-9)

	reset, err := store.ResetDailyUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	usage, err = store.GetUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.AnalysesThisDay)
	assert.Equal(t, 15, usage.TotalAnalyses)
}
