package stats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	StatsFunc   func(ctx context.Context) (*models.Stats, error)
	MetricsFunc func(ctx context.Context) (*models.VerificationMetrics, error)
	calls       int
}

func (m *mockSource) Stats(ctx context.Context) (*models.Stats, error) {
	m.calls++
	return m.StatsFunc(ctx)
}

func (m *mockSource) Metrics(ctx context.Context) (*models.VerificationMetrics, error) {
	m.calls++
	return m.MetricsFunc(ctx)
}

func fixedSource() *mockSource {
	return &mockSource{
		StatsFunc: func(context.Context) (*models.Stats, error) {
			return &models.Stats{TotalApplied: 3, Pending: 2, Approved: 1, CountOnDesk1: 2}, nil
		},
		MetricsFunc: func(context.Context) (*models.VerificationMetrics, error) {
			return &models.VerificationMetrics{TotalApplications: 3, StatusDistribution: map[string]int64{"PENDING": 2}}, nil
		},
	}
}

// ==========================
// redismock: exact command flow
// ==========================

func TestStats_CacheMissPopulates(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := fixedSource()
	agg := NewAggregator(source, rdb, time.Minute, logger.NewTestLogger(t))

	expected, _ := source.StatsFunc(context.Background())
	data, _ := json.Marshal(expected)

	mock.ExpectGet(GenerationKey).SetVal("4")
	mock.ExpectGet("verification:stats:4").RedisNil()
	mock.ExpectSet("verification:stats:4", data, time.Minute).SetVal("OK")

	got, err := agg.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats_CacheHitSkipsSource(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := fixedSource()
	agg := NewAggregator(source, rdb, time.Minute, logger.NewTestLogger(t))

	cached, _ := json.Marshal(models.Stats{TotalApplied: 9})
	mock.ExpectGet(GenerationKey).RedisNil()
	mock.ExpectGet(CacheKey(StatsKey, 0)).SetVal(string(cached))

	got, err := agg.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.TotalApplied)
	assert.Zero(t, source.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats_RedisErrorFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := fixedSource()
	agg := NewAggregator(source, rdb, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet(GenerationKey).SetErr(errors.New("connection refused"))

	got, err := agg.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalApplied)
	assert.Equal(t, 1, source.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAfterCommit_BumpsGeneration(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	agg := NewAggregator(fixedSource(), rdb, time.Minute, logger.NewTestLogger(t))

	mock.ExpectIncr(GenerationKey).SetVal(1)

	err := agg.AfterCommit(context.Background(), workflow.Event{Application: &models.Application{ID: "a1"}})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceErrorIsReturned(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	source := fixedSource()
	source.MetricsFunc = func(context.Context) (*models.VerificationMetrics, error) {
		return nil, errors.New("db down")
	}
	agg := NewAggregator(source, rdb, time.Minute, logger.NewTestLogger(t))
	mock.ExpectGet(GenerationKey).RedisNil()
	mock.ExpectGet(CacheKey(MetricsKey, 0)).RedisNil()

	_, err := agg.Metrics(context.Background())
	assert.EqualError(t, err, "db down")
}

// ==========================
// miniredis: TTL and invalidation
// ==========================

func TestStats_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := fixedSource()
	agg := NewAggregator(source, rdb, 30*time.Second, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := agg.Stats(ctx)
	require.NoError(t, err)
	_, err = agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.True(t, mr.Exists(CacheKey(StatsKey, 0)))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(CacheKey(StatsKey, 0)))

	_, err = agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestStats_InvalidationDuringReadIsNotLost(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	var agg *Aggregator
	source := &mockSource{}
	source.StatsFunc = func(context.Context) (*models.Stats, error) {
		if source.calls == 1 {
			// a transition commits after this read but before the result is cached
			require.NoError(t, agg.AfterCommit(ctx, workflow.Event{Application: &models.Application{ID: "a1"}}))
			return &models.Stats{TotalApplied: 1, Pending: 1}, nil
		}
		return &models.Stats{TotalApplied: 1, Approved: 1}, nil
	}
	agg = NewAggregator(source, rdb, time.Minute, logger.NewTestLogger(t))

	stale, err := agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.Pending)

	fresh, err := agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Approved)
	assert.Equal(t, 2, source.calls)

	cached, err := agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Approved)
	assert.Equal(t, 2, source.calls)
}

func TestNilRedisDisablesCache(t *testing.T) {
	source := fixedSource()
	agg := NewAggregator(source, nil, time.Minute, logger.NewNoOpLogger())

	_, _ = agg.Stats(context.Background())
	_, _ = agg.Stats(context.Background())
	assert.Equal(t, 2, source.calls)
	assert.NoError(t, agg.Invalidate(context.Background()))
}
