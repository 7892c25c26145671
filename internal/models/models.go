package models

import "time"

// Platform identifies where a comment was fetched from
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformReddit  Platform = "reddit"
)

// Sentiment classification buckets produced by the analysis provider
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Engagement classification buckets
type Engagement string

const (
	EngagementHigh   Engagement = "high"
	EngagementMedium Engagement = "medium"
	EngagementLow    Engagement = "low"
)

// VideoMetadata represents a video or post whose comments are analyzed
type VideoMetadata struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id"` // platform-native id
	Platform     Platform  `json:"platform"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Views        int       `json:"views"`
	Likes        int       `json:"likes"`
	CommentCount int       `json:"comment_count"`
	AuthorName   string    `json:"author_name"`
	AuthorID     string    `json:"author_id"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Comment is a single raw comment fetched from a platform.
// Immutable once fetched; identity is (platform, id).
type Comment struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	LikeCount  int       `json:"like_count"`
	ReplyCount int       `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
	Platform   Platform  `json:"platform"`
}

// AnalysisResult is the structured verdict for one comment.
// Produced once by the provider (or served from cache); never mutated.
type AnalysisResult struct {
	Sentiment      Sentiment  `json:"sentiment"`
	SentimentScore float64    `json:"sentiment_score"` // -1 to 1
	Toxicity       float64    `json:"toxicity"`        // 0 to 1
	Topics         []string   `json:"topics"`          // max 5
	Summary        string     `json:"summary"`
	KeyPhrases     []string   `json:"key_phrases"` // max 5
	Engagement     Engagement `json:"engagement"`
}

// AnalysisRecord is a stored per-comment analysis row
type AnalysisRecord struct {
	AnalysisResult
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VideoID   string    `json:"video_id"`
	CommentID string    `json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CacheEntry is a content-addressed cached analysis.
// At most one entry exists per content hash (upsert semantics).
type CacheEntry struct {
	ContentHash string    `json:"content_hash"` // sha256, 64 hex chars
	Payload     []byte    `json:"payload"`      // serialized AnalysisResult
	Platform    Platform  `json:"platform"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SentimentCounts tallies analyses by sentiment bucket
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Mixed    int `json:"mixed"`
}

// EngagementCounts tallies analyses by engagement bucket
type EngagementCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Aggregation is the per-video rollup computed by folding every stored
// per-comment analysis. Fully recomputed on each run, never incremental.
type Aggregation struct {
	VideoID          string           `json:"video_id"`
	SentimentCounts  SentimentCounts  `json:"sentiment_counts"`
	EngagementCounts EngagementCounts `json:"engagement_counts"`
	AverageSentiment float64          `json:"average_sentiment"`
	AverageToxicity  float64          `json:"average_toxicity"`
	TopTopics        []string         `json:"top_topics"`  // max 10, by frequency
	TopPhrases       []string         `json:"top_phrases"` // max 10, by frequency
	TotalAnalyzed    int              `json:"total_analyzed"`
	LastUpdated      time.Time        `json:"last_updated"`
}

// TimelinePoint is one day of the derived sentiment trend
type TimelinePoint struct {
	Date           string  `json:"date"` // YYYY-MM-DD, UTC
	SentimentRatio float64 `json:"sentiment_ratio"`
}

// UsageMetrics tracks a user's analysis consumption
type UsageMetrics struct {
	UserID               string  `json:"user_id"`
	TotalAnalyses        int     `json:"total_analyses"`
	AnalysesThisDay      int     `json:"analyses_this_day"`
	TotalCommentsFetched int     `json:"total_comments_fetched"`
	TotalCostUSD         float64 `json:"total_cost_usd"`
}

// BatchReport summarizes one batch analysis run, including partial results
type BatchReport struct {
	BatchID   string    `json:"batch_id"`
	VideoID   string    `json:"video_id"`
	Requested int       `json:"requested"`
	Analyzed  int       `json:"analyzed"`
	FromCache int       `json:"from_cache"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`  // never attempted (cancellation)
	Duration  string    `json:"duration"` // time.Duration string form
	StartedAt time.Time `json:"started_at"`
}
