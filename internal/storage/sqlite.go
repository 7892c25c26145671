package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/BinaryFighter-01/commentiq/internal/models"

	_ "modernc.org/sqlite"
)

// Timestamps are stored as fixed-width RFC3339 UTC strings so that SQL
// comparisons order correctly.
const timeFormat = "2006-01-02T15:04:05Z"

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and initializes the schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		views INTEGER DEFAULT 0,
		likes INTEGER DEFAULT 0,
		comment_count INTEGER DEFAULT 0,
		author_name TEXT,
		author_id TEXT,
		fetched_at TEXT NOT NULL,
		UNIQUE(platform, video_id)
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT NOT NULL,
		platform TEXT NOT NULL,
		video_id TEXT NOT NULL,
		author_id TEXT,
		author_name TEXT,
		content TEXT NOT NULL,
		like_count INTEGER DEFAULT 0,
		reply_count INTEGER DEFAULT 0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (platform, id)
	);
	CREATE INDEX IF NOT EXISTS idx_comments_video ON comments(video_id);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		comment_id TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		sentiment_score REAL NOT NULL,
		toxicity REAL NOT NULL,
		topics TEXT NOT NULL,
		summary TEXT,
		key_phrases TEXT NOT NULL,
		engagement TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_video ON analyses(video_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);

	CREATE TABLE IF NOT EXISTS analysis_cache (
		content_hash TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		platform TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON analysis_cache(expires_at);

	CREATE TABLE IF NOT EXISTS aggregations (
		video_id TEXT PRIMARY KEY,
		positive_count INTEGER DEFAULT 0,
		negative_count INTEGER DEFAULT 0,
		neutral_count INTEGER DEFAULT 0,
		mixed_count INTEGER DEFAULT 0,
		high_engagement_count INTEGER DEFAULT 0,
		medium_engagement_count INTEGER DEFAULT 0,
		low_engagement_count INTEGER DEFAULT 0,
		average_sentiment REAL DEFAULT 0,
		average_toxicity REAL DEFAULT 0,
		top_topics TEXT NOT NULL,
		top_phrases TEXT NOT NULL,
		total_analyzed INTEGER DEFAULT 0,
		last_updated TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS usage_metrics (
		user_id TEXT PRIMARY KEY,
		total_analyses INTEGER DEFAULT 0,
		analyses_this_day INTEGER DEFAULT 0,
		total_comments_fetched INTEGER DEFAULT 0,
		total_cost_usd REAL DEFAULT 0
	);
	`

	_, err := s.db.Exec(query)
	return err
}

// GetCacheEntry retrieves a cache entry by content hash
func (s *SQLiteStore) GetCacheEntry(ctx context.Context, contentHash string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	var payload, expiresAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash, payload, platform, expires_at FROM analysis_cache WHERE content_hash = ?`,
		contentHash,
	).Scan(&entry.ContentHash, &payload, &entry.Platform, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}

	entry.Payload = []byte(payload)
	entry.ExpiresAt, err = time.Parse(timeFormat, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache expiry: %w", err)
	}

	return &entry, nil
}

// UpsertCacheEntry inserts or replaces the entry for its content hash
func (s *SQLiteStore) UpsertCacheEntry(ctx context.Context, entry *models.CacheEntry) error {
	query := `
	INSERT INTO analysis_cache (content_hash, payload, platform, expires_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(content_hash) DO UPDATE SET
		payload = excluded.payload,
		platform = excluded.platform,
		expires_at = excluded.expires_at
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ContentHash,
		string(entry.Payload),
		entry.Platform,
		entry.ExpiresAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

// DeleteCacheEntry removes the entry for the given content hash
func (s *SQLiteStore) DeleteCacheEntry(ctx context.Context, contentHash string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE content_hash = ?`, contentHash)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteExpiredCacheEntries removes all entries that expired before now
func (s *SQLiteStore) DeleteExpiredCacheEntries(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE expires_at < ?`,
		now.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

// UpsertVideo inserts or refreshes video metadata. The internal record id is
// generated on first insert and written back to video.ID.
func (s *SQLiteStore) UpsertVideo(ctx context.Context, video *models.VideoMetadata) error {
	if video.FetchedAt.IsZero() {
		video.FetchedAt = time.Now()
	}

	query := `
	INSERT INTO videos (id, video_id, platform, title, url, views, likes, comment_count, author_name, author_id, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(platform, video_id) DO UPDATE SET
		title = excluded.title,
		views = excluded.views,
		likes = excluded.likes,
		comment_count = excluded.comment_count,
		fetched_at = excluded.fetched_at
	RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		video.VideoID,
		video.Platform,
		video.Title,
		video.URL,
		video.Views,
		video.Likes,
		video.CommentCount,
		video.AuthorName,
		video.AuthorID,
		video.FetchedAt.UTC().Format(timeFormat),
	).Scan(&video.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

// GetVideo retrieves video metadata by internal record id
func (s *SQLiteStore) GetVideo(ctx context.Context, id string) (*models.VideoMetadata, error) {
	var video models.VideoMetadata
	var fetchedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, video_id, platform, title, url, views, likes, comment_count, author_name, author_id, fetched_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&video.ID, &video.VideoID, &video.Platform, &video.Title, &video.URL,
		&video.Views, &video.Likes, &video.CommentCount, &video.AuthorName, &video.AuthorID, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video: %w", err)
	}

	video.FetchedAt, _ = time.Parse(timeFormat, fetchedAt)
	return &video, nil
}

// UpsertComment stores a raw comment; fetch-time counters may be refreshed
func (s *SQLiteStore) UpsertComment(ctx context.Context, comment *models.Comment) error {
	query := `
	INSERT INTO comments (id, platform, video_id, author_id, author_name, content, like_count, reply_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(platform, id) DO UPDATE SET
		like_count = excluded.like_count,
		reply_count = excluded.reply_count
	`

	_, err := s.db.ExecContext(ctx, query,
		comment.ID,
		comment.Platform,
		comment.VideoID,
		comment.AuthorID,
		comment.AuthorName,
		comment.Content,
		comment.LikeCount,
		comment.ReplyCount,
		comment.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert comment: %w", err)
	}

	return nil
}

// InsertAnalysis stores one per-comment analysis record
func (s *SQLiteStore) InsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	topicsJSON, err := json.Marshal(record.Topics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}
	phrasesJSON, err := json.Marshal(record.KeyPhrases)
	if err != nil {
		return fmt.Errorf("failed to marshal key phrases: %w", err)
	}

	query := `
	INSERT INTO analyses (id, user_id, video_id, comment_id, sentiment, sentiment_score, toxicity, topics, summary, key_phrases, engagement, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.VideoID,
		record.CommentID,
		record.Sentiment,
		record.SentimentScore,
		record.Toxicity,
		string(topicsJSON),
		record.Summary,
		string(phrasesJSON),
		record.Engagement,
		record.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// ListAnalyses returns every stored analysis for a video, oldest first
func (s *SQLiteStore) ListAnalyses(ctx context.Context, videoID string) ([]models.AnalysisRecord, error) {
	query := `
	SELECT id, user_id, video_id, comment_id, sentiment, sentiment_score, toxicity, topics, summary, key_phrases, engagement, created_at
	FROM analyses
	WHERE video_id = ?
	ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		var topicsJSON, phrasesJSON, createdAt string

		err := rows.Scan(&rec.ID, &rec.UserID, &rec.VideoID, &rec.CommentID,
			&rec.Sentiment, &rec.SentimentScore, &rec.Toxicity,
			&topicsJSON, &rec.Summary, &phrasesJSON, &rec.Engagement, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		if err := json.Unmarshal([]byte(topicsJSON), &rec.Topics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
		}
		if err := json.Unmarshal([]byte(phrasesJSON), &rec.KeyPhrases); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key phrases: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return records, nil
}

// GetAggregation retrieves the rollup for a video
func (s *SQLiteStore) GetAggregation(ctx context.Context, videoID string) (*models.Aggregation, error) {
	var agg models.Aggregation
	var topicsJSON, phrasesJSON, lastUpdated string

	err := s.db.QueryRowContext(ctx,
		`SELECT video_id, positive_count, negative_count, neutral_count, mixed_count,
		        high_engagement_count, medium_engagement_count, low_engagement_count,
		        average_sentiment, average_toxicity, top_topics, top_phrases, total_analyzed, last_updated
		 FROM aggregations WHERE video_id = ?`, videoID,
	).Scan(&agg.VideoID,
		&agg.SentimentCounts.Positive, &agg.SentimentCounts.Negative,
		&agg.SentimentCounts.Neutral, &agg.SentimentCounts.Mixed,
		&agg.EngagementCounts.High, &agg.EngagementCounts.Medium, &agg.EngagementCounts.Low,
		&agg.AverageSentiment, &agg.AverageToxicity,
		&topicsJSON, &phrasesJSON, &agg.TotalAnalyzed, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregation: %w", err)
	}

	if err := json.Unmarshal([]byte(topicsJSON), &agg.TopTopics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top topics: %w", err)
	}
	if err := json.Unmarshal([]byte(phrasesJSON), &agg.TopPhrases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top phrases: %w", err)
	}
	agg.LastUpdated, _ = time.Parse(timeFormat, lastUpdated)

	return &agg, nil
}

// UpsertAggregation fully replaces the rollup for a video
func (s *SQLiteStore) UpsertAggregation(ctx context.Context, agg *models.Aggregation) error {
	topicsJSON, err := json.Marshal(agg.TopTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal top topics: %w", err)
	}
	phrasesJSON, err := json.Marshal(agg.TopPhrases)
	if err != nil {
		return fmt.Errorf("failed to marshal top phrases: %w", err)
	}

	query := `
	INSERT INTO aggregations (video_id, positive_count, negative_count, neutral_count, mixed_count,
		high_engagement_count, medium_engagement_count, low_engagement_count,
		average_sentiment, average_toxicity, top_topics, top_phrases, total_analyzed, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(video_id) DO UPDATE SET
		positive_count = excluded.positive_count,
		negative_count = excluded.negative_count,
		neutral_count = excluded.neutral_count,
		mixed_count = excluded.mixed_count,
		high_engagement_count = excluded.high_engagement_count,
		medium_engagement_count = excluded.medium_engagement_count,
		low_engagement_count = excluded.low_engagement_count,
		average_sentiment = excluded.average_sentiment,
		average_toxicity = excluded.average_toxicity,
		top_topics = excluded.top_topics,
		top_phrases = excluded.top_phrases,
		total_analyzed = excluded.total_analyzed,
		last_updated = excluded.last_updated
	`

	_, err = s.db.ExecContext(ctx, query,
		agg.VideoID,
		agg.SentimentCounts.Positive, agg.SentimentCounts.Negative,
		agg.SentimentCounts.Neutral, agg.SentimentCounts.Mixed,
		agg.EngagementCounts.High, agg.EngagementCounts.Medium, agg.EngagementCounts.Low,
		agg.AverageSentiment, agg.AverageToxicity,
		string(topicsJSON), string(phrasesJSON),
		agg.TotalAnalyzed,
		agg.LastUpdated.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert aggregation: %w", err)
	}

	return nil
}

// GetUsage returns the usage counters for a user; zero counters when the
// user has no row yet
func (s *SQLiteStore) GetUsage(ctx context.Context, userID string) (*models.UsageMetrics, error) {
	usage := &models.UsageMetrics{UserID: userID}

	err := s.db.QueryRowContext(ctx,
		`SELECT total_analyses, analyses_this_day, total_comments_fetched, total_cost_usd
		 FROM usage_metrics WHERE user_id = ?`, userID,
	).Scan(&usage.TotalAnalyses, &usage.AnalysesThisDay, &usage.TotalCommentsFetched, &usage.TotalCostUSD)
	if err == sql.ErrNoRows {
		return usage, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}

	return usage, nil
}

// IncrementUsage applies increment-only deltas to a user's counters
func (s *SQLiteStore) IncrementUsage(ctx context.Context, userID string, analyses, commentsFetched int, costUSD float64) error {
	query := `
	INSERT INTO usage_metrics (user_id, total_analyses, analyses_this_day, total_comments_fetched, total_cost_usd)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		total_analyses = total_analyses + excluded.total_analyses,
		analyses_this_day = analyses_this_day + excluded.analyses_this_day,
		total_comments_fetched = total_comments_fetched + excluded.total_comments_fetched,
		total_cost_usd = total_cost_usd + excluded.total_cost_usd
	`

	_, err := s.db.ExecContext(ctx, query, userID, analyses, analyses, commentsFetched, costUSD)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	return nil
}

// ResetDailyUsage zeroes the daily counter for every user
func (s *SQLiteStore) ResetDailyUsage(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE usage_metrics SET analyses_this_day = 0 WHERE analyses_this_day > 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily usage: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
