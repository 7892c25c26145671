package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinaryFighter-01/commentiq/internal/analysis"
	"github.com/BinaryFighter-01/commentiq/internal/analytics"
	"github.com/BinaryFighter-01/commentiq/internal/cache"
	"github.com/BinaryFighter-01/commentiq/internal/config"
	"github.com/BinaryFighter-01/commentiq/internal/models"
	"github.com/BinaryFighter-01/commentiq/internal/provider"
	"github.com/BinaryFighter-01/commentiq/internal/sources"
	"github.com/BinaryFighter-01/commentiq/internal/storage"
	"github.com/BinaryFighter-01/commentiq/internal/usage"
)

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{Port: "8080"}
	c := cache.New(store, true, 24*time.Hour)
	limiter := usage.NewLimiter(store, 100, 0.01)
	orchestrator := analysis.NewOrchestrator(c, provider.NewMockProvider(), store, limiter, 10, 0)
	aggregator := analytics.NewService(store)

	// Sources without credentials stay disabled
	srcs := []sources.Source{
		sources.NewYouTubeSource(""),
		sources.NewRedditSource("", ""),
	}

	return NewServer(cfg, store, orchestrator, aggregator, nil, srcs), store
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_analyzed")
}

func TestAnalyzeEndpoint_SourceNotConfigured(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/analyze/youtube",
		jsonBody(`{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyticsEndpoint_RequiresVideoID(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/analytics", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body["kind"])
}

func TestAnalyticsEndpoint_RejectsBadDays(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/analytics?videoId=v1&days=-3", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsEndpoint_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/analytics?videoId=unknown", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["kind"])
}

func TestAnalyticsEndpoint_ReturnsRollupAndTimeline(t *testing.T) {
	server, store := newTestServer(t)
	ctx := httptest.NewRequest("GET", "/", nil).Context()

	record := &models.AnalysisRecord{
		AnalysisResult: models.AnalysisResult{
			Sentiment:  models.SentimentPositive,
			Topics:     []string{"music"},
			KeyPhrases: []string{"love it"},
			Engagement: models.EngagementHigh,
		},
		UserID:    "u1",
		VideoID:   "v1",
		CommentID: "c1",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.InsertAnalysis(ctx, record))
	require.NoError(t, store.UpsertAggregation(ctx, &models.Aggregation{
		VideoID:         "v1",
		SentimentCounts: models.SentimentCounts{Positive: 1},
		TopTopics:       []string{"music"},
		TopPhrases:      []string{"love it"},
		TotalAnalyzed:   1,
		LastUpdated:     time.Now().UTC(),
	}))

	req := httptest.NewRequest("GET", "/api/analytics?videoId=v1&days=7", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body analyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Aggregation)
	assert.Equal(t, 1, body.Aggregation.TotalAnalyzed)
	assert.Equal(t, []string{"music"}, body.Aggregation.TopTopics)
	require.Len(t, body.Timeline, 1)
	assert.InDelta(t, 1, body.Timeline[0].SentimentRatio, 1e-9)
}

func TestUsageEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	ctx := httptest.NewRequest("GET", "/", nil).Context()

	require.NoError(t, store.IncrementUsage(ctx, "u1", 4, 10, 0.04))

	req := httptest.NewRequest("GET", "/api/usage?userId=u1", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.UsageMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.AnalysesThisDay)
	assert.Equal(t, 10, body.TotalCommentsFetched)

	// Missing userId is rejected
	req = httptest.NewRequest("GET", "/api/usage", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
