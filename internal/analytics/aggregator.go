// Package analytics folds stored per-comment analyses into per-video rollups.
// Aggregation is always a full recompute over the current analysis set, never
// an incremental update, which keeps re-runs idempotent and makes recovery
// from a partially failed batch a matter of running it again.
package analytics

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/models"
	"github.com/BinaryFighter-01/commentiq/internal/storage"
)

// ErrNoAnalyses is returned when a video has no stored analyses yet. Callers
// treat it as a no-op, not a failure.
var ErrNoAnalyses = errors.New("no analyses to aggregate")

// Service recomputes and persists rollups
type Service struct {
	store storage.Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates an aggregation service over the given store
func NewService(store storage.Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// Aggregate folds a complete set of per-comment analyses into one rollup.
// Deterministic: single pass for the tallies, then a stable frequency ranking
// for topics and phrases.
func Aggregate(analyses []models.AnalysisRecord) (*models.Aggregation, error) {
	if len(analyses) == 0 {
		return nil, ErrNoAnalyses
	}

	agg := &models.Aggregation{TotalAnalyzed: len(analyses)}

	var allTopics, allPhrases []string
	var totalToxicity float64

	for _, a := range analyses {
		switch a.Sentiment {
		case models.SentimentPositive:
			agg.SentimentCounts.Positive++
		case models.SentimentNegative:
			agg.SentimentCounts.Negative++
		case models.SentimentMixed:
			agg.SentimentCounts.Mixed++
		default:
			agg.SentimentCounts.Neutral++
		}

		switch a.Engagement {
		case models.EngagementHigh:
			agg.EngagementCounts.High++
		case models.EngagementLow:
			agg.EngagementCounts.Low++
		default:
			agg.EngagementCounts.Medium++
		}

		allTopics = append(allTopics, a.Topics...)
		allPhrases = append(allPhrases, a.KeyPhrases...)
		totalToxicity += a.Toxicity
	}

	// Coarse polarity ratio over bucket counts, not the mean of the
	// per-comment sentiment scores.
	agg.AverageSentiment = float64(agg.SentimentCounts.Positive-agg.SentimentCounts.Negative) / float64(len(analyses))
	agg.AverageToxicity = totalToxicity / float64(len(analyses))
	agg.TopTopics = topItems(allTopics, 10)
	agg.TopPhrases = topItems(allPhrases, 10)

	return agg, nil
}

// topItems ranks items by descending frequency, ties broken by first-seen
// order, and returns at most limit of them
func topItems(items []string, limit int) []string {
	frequency := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, item := range items {
		if _, seen := frequency[item]; !seen {
			firstSeen[item] = i
		}
		frequency[item]++
	}

	unique := make([]string, 0, len(frequency))
	for item := range frequency {
		unique = append(unique, item)
	}

	sort.Slice(unique, func(i, j int) bool {
		if frequency[unique[i]] != frequency[unique[j]] {
			return frequency[unique[i]] > frequency[unique[j]]
		}
		return firstSeen[unique[i]] < firstSeen[unique[j]]
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}

	return unique
}

// Refresh recomputes the rollup for a video from its full analysis set and
// upserts it. Concurrent refreshes of the same video are serialized so a
// stale computation cannot clobber a newer one mid-write; different videos
// share no state and run in parallel.
func (s *Service) Refresh(ctx context.Context, videoID string) (*models.Aggregation, error) {
	lock := s.videoLock(videoID)
	lock.Lock()
	defer lock.Unlock()

	analyses, err := s.store.ListAnalyses(ctx, videoID)
	if err != nil {
		return nil, err
	}

	agg, err := Aggregate(analyses)
	if errors.Is(err, ErrNoAnalyses) {
		logrus.Warnf("No analyses found for video %s, skipping aggregation", videoID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	agg.VideoID = videoID
	agg.LastUpdated = s.now()

	if err := s.store.UpsertAggregation(ctx, agg); err != nil {
		return nil, err
	}

	logrus.Infof("Aggregated %d analyses for video %s", agg.TotalAnalyzed, videoID)
	return agg, nil
}

func (s *Service) videoLock(videoID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[videoID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[videoID] = lock
	}
	return lock
}

// Timeline derives the day-bucketed sentiment trend from analyses created in
// the last `days` days. Buckets are UTC calendar dates; the ratio is
// (positive-negative)/(positive+negative). A day with no positive or negative
// analyses (only neutral/mixed) is kept with ratio 0 rather than dropped, so
// charts show a flat point instead of a gap.
func Timeline(analyses []models.AnalysisRecord, days int, now time.Time) []models.TimelinePoint {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	type bucket struct {
		positive int
		negative int
	}
	buckets := make(map[string]*bucket)

	for _, a := range analyses {
		if a.CreatedAt.Before(cutoff) {
			continue
		}

		day := a.CreatedAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}

		switch a.Sentiment {
		case models.SentimentPositive:
			b.positive++
		case models.SentimentNegative:
			b.negative++
		}
	}

	dates := make([]string, 0, len(buckets))
	for day := range buckets {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	points := make([]models.TimelinePoint, 0, len(dates))
	for _, day := range dates {
		b := buckets[day]
		ratio := 0.0
		if total := b.positive + b.negative; total > 0 {
			ratio = float64(b.positive-b.negative) / float64(total)
		}
		points = append(points, models.TimelinePoint{Date: day, SentimentRatio: ratio})
	}

	return points
}

// TimelineFor loads a video's analyses and derives its timeline
func (s *Service) TimelineFor(ctx context.Context, videoID string, days int) ([]models.TimelinePoint, error) {
	analyses, err := s.store.ListAnalyses(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return Timeline(analyses, days, s.now()), nil
}
