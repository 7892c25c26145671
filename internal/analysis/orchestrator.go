// Package analysis drives per-comment analysis: cache check, provider call on
// miss, cache write, durable storage of results, and batch fan-out.
package analysis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/apperr"
	"github.com/BinaryFighter-01/commentiq/internal/cache"
	"github.com/BinaryFighter-01/commentiq/internal/models"
	"github.com/BinaryFighter-01/commentiq/internal/provider"
	"github.com/BinaryFighter-01/commentiq/internal/storage"
	"github.com/BinaryFighter-01/commentiq/internal/usage"
)

// Orchestrator coordinates cache, provider, store and quota for analysis runs
type Orchestrator struct {
	cache    *cache.Cache
	provider provider.Provider
	store    storage.Store
	limiter  *usage.Limiter

	batchSize  int
	batchDelay time.Duration

	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds counters across analysis runs
type Metrics struct {
	TotalAnalyzed      int            `json:"total_analyzed"`
	CacheHits          int            `json:"cache_hits"`
	ProviderCalls      int            `json:"provider_calls"`
	ErrorCount         int            `json:"error_count"`
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
}

// NewOrchestrator creates an orchestrator with explicit dependencies
func NewOrchestrator(c *cache.Cache, p provider.Provider, store storage.Store, limiter *usage.Limiter, batchSize int, batchDelay time.Duration) *Orchestrator {
	return &Orchestrator{
		cache:      c,
		provider:   p,
		store:      store,
		limiter:    limiter,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		metrics: &Metrics{
			SentimentBreakdown: make(map[string]int),
		},
	}
}

// AnalyzeOne returns the analysis for a single comment, from cache when a
// live entry exists, otherwise from the provider followed by a cache write.
// The caller cannot tell (and must not assume) which path produced the
// result: textually identical comments from different videos share one
// cached verdict that may be up to TTL old. Provider errors propagate with
// their kind; cache failures never do.
func (o *Orchestrator) AnalyzeOne(ctx context.Context, comment models.Comment, cctx provider.CommentContext) (*models.AnalysisResult, bool, error) {
	if result, ok := o.cache.Get(ctx, comment.Content); ok {
		return result, true, nil
	}

	result, err := o.provider.Analyze(ctx, comment.Content, cctx)
	if err != nil {
		return nil, false, err
	}

	o.cache.Put(ctx, comment.Content, result, comment.Platform)

	return result, false, nil
}

// AnalyzeBatch analyzes a set of comments for one video on behalf of a user.
// The quota gate runs before any provider call. Comments are processed with
// bounded concurrency and a short pause between waves to respect upstream
// rate limits. Individual failures are counted, not fatal; the user is
// charged per comment actually analyzed even when the batch is cut short.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, userID string, video *models.VideoMetadata, comments []models.Comment) (*models.BatchReport, error) {
	allowed, err := o.limiter.CheckQuota(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "quota check failed", err)
	}
	if !allowed {
		return nil, apperr.New(apperr.KindQuotaExceeded, "daily analysis limit reached")
	}

	start := time.Now()
	report := &models.BatchReport{
		BatchID:   uuid.NewString(),
		VideoID:   video.ID,
		Requested: len(comments),
		StartedAt: start,
	}

	logrus.Infof("Starting analysis batch %s: %d comments for video %s", report.BatchID, len(comments), video.ID)

	cctx := provider.CommentContext{VideoTitle: video.Title, Platform: video.Platform}

	var mu sync.Mutex
	for i := 0; i < len(comments); i += o.batchSize {
		if ctx.Err() != nil {
			logrus.Warnf("Batch %s cancelled after %d/%d comments", report.BatchID, i, len(comments))
			break
		}

		end := i + o.batchSize
		if end > len(comments) {
			end = len(comments)
		}

		var wg sync.WaitGroup
		for _, comment := range comments[i:end] {
			wg.Add(1)
			go func(c models.Comment) {
				defer wg.Done()

				fromCache, err := o.analyzeAndStore(ctx, userID, video.ID, c, cctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logrus.Errorf("Failed to analyze comment %s: %v", c.ID, err)
					report.Failed++
					return
				}
				report.Analyzed++
				if fromCache {
					report.FromCache++
				}
			}(comment)
		}
		wg.Wait()

		// Backpressure between waves, not a correctness requirement
		if end < len(comments) && o.batchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.batchDelay):
			}
		}
	}

	report.Skipped = report.Requested - report.Analyzed - report.Failed
	report.Duration = time.Since(start).String()

	// Partial batches still charge for what they finished
	if err := o.limiter.Record(context.WithoutCancel(ctx), userID, report.Analyzed, len(comments)); err != nil {
		logrus.Errorf("Failed to record usage for batch %s: %v", report.BatchID, err)
	}

	o.updateMetrics(report)

	logrus.Infof("Analysis batch %s completed in %v: %d analyzed (%d from cache), %d failed",
		report.BatchID, report.Duration, report.Analyzed, report.FromCache, report.Failed)

	return report, nil
}

// analyzeAndStore runs one comment through the pipeline and durably stores
// the result. Transient provider failures get a single retry after a short
// backoff; malformed responses are never retried or defaulted.
func (o *Orchestrator) analyzeAndStore(ctx context.Context, userID, videoID string, comment models.Comment, cctx provider.CommentContext) (bool, error) {
	if err := o.store.UpsertComment(ctx, &comment); err != nil {
		return false, apperr.Wrap(apperr.KindStorage, "failed to store comment", err)
	}

	result, fromCache, err := o.AnalyzeOne(ctx, comment, cctx)
	if err != nil && apperr.Retryable(err) && ctx.Err() == nil {
		logrus.Warnf("Transient provider error for comment %s, retrying: %v", comment.ID, err)
		select {
		case <-ctx.Done():
			return false, err
		case <-time.After(time.Second):
		}
		result, fromCache, err = o.AnalyzeOne(ctx, comment, cctx)
	}
	if err != nil {
		return false, err
	}

	record := &models.AnalysisRecord{
		AnalysisResult: *result,
		UserID:         userID,
		VideoID:        videoID,
		CommentID:      comment.ID,
	}
	if err := o.store.InsertAnalysis(ctx, record); err != nil {
		return false, apperr.Wrap(apperr.KindStorage, "failed to store analysis", err)
	}

	return fromCache, nil
}

func (o *Orchestrator) updateMetrics(report *models.BatchReport) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.metrics.TotalAnalyzed += report.Analyzed
	o.metrics.CacheHits += report.FromCache
	o.metrics.ProviderCalls += report.Analyzed - report.FromCache
	o.metrics.ErrorCount += report.Failed
	o.metrics.LastRun = report.StartedAt
	o.metrics.LastRunDuration = report.Duration
}

// RecordSentiments folds a batch's sentiment mix into the run metrics
func (o *Orchestrator) RecordSentiments(agg *models.Aggregation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.metrics.SentimentBreakdown["positive"] += agg.SentimentCounts.Positive
	o.metrics.SentimentBreakdown["negative"] += agg.SentimentCounts.Negative
	o.metrics.SentimentBreakdown["neutral"] += agg.SentimentCounts.Neutral
	o.metrics.SentimentBreakdown["mixed"] += agg.SentimentCounts.Mixed
}

// GetMetrics returns current metrics as JSON
func (o *Orchestrator) GetMetrics() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	data, _ := json.MarshalIndent(o.metrics, "", "  ")
	return string(data)
}
