package usage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinaryFighter-01/commentiq/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestLimiter_CheckQuotaFreshUser(t *testing.T) {
	limiter := NewLimiter(newTestStore(t), 100, 0.01)

	allowed, err := limiter.CheckQuota(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_CheckQuotaBoundary(t *testing.T) {
	store := newTestStore(t)
	limiter := NewLimiter(store, 100, 0.01)
	ctx := context.Background()

	require.NoError(t, store.IncrementUsage(ctx, "u1", 99, 99, 0.99))

	// One below the limit still passes
	allowed, err := limiter.CheckQuota(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, store.IncrementUsage(ctx, "u1", 1, 1, 0.01))

	// At the limit the gate closes
	allowed, err = limiter.CheckQuota(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLimiter_QuotaIsPerUser(t *testing.T) {
	store := newTestStore(t)
	limiter := NewLimiter(store, 10, 0.01)
	ctx := context.Background()

	require.NoError(t, store.IncrementUsage(ctx, "heavy", 10, 10, 0.10))

	allowed, err := limiter.CheckQuota(ctx, "heavy")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.CheckQuota(ctx, "light")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLimiter_RecordChargesPerAnalyzedComment(t *testing.T) {
	store := newTestStore(t)
	limiter := NewLimiter(store, 100, 0.01)
	ctx := context.Background()

	// Partial batch: 25 fetched, only 7 analyzed
	require.NoError(t, limiter.Record(ctx, "u1", 7, 25))

	usage, err := store.GetUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, usage.AnalysesThisDay)
	assert.Equal(t, 7, usage.TotalAnalyses)
	assert.Equal(t, 25, usage.TotalCommentsFetched)
	assert.InDelta(t, 0.07, usage.TotalCostUSD, 1e-9)
}

func TestLimiter_RecordEmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	limiter := NewLimiter(store, 100, 0.01)
	ctx := context.Background()

	require.NoError(t, limiter.Record(ctx, "u1", 0, 0))

	usage, err := store.GetUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.TotalAnalyses)
}

func TestLimiter_ResetDailyReopensQuota(t *testing.T) {
	store := newTestStore(t)
	limiter := NewLimiter(store, 10, 0.01)
	ctx := context.Background()

	require.NoError(t, limiter.Record(ctx, "u1", 10, 10))

	allowed, err := limiter.CheckQuota(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, allowed)

	reset, err := limiter.ResetDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	allowed, err = limiter.CheckQuota(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)

	// Lifetime counters survive the reset
	usage, err := store.GetUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, usage.TotalAnalyses)
}
