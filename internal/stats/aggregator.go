// Package stats serves dashboard aggregates over the application store,
// cached in Redis and invalidated after every committed change.
//
// Cached values live under a generation-scoped key. Invalidate bumps the
// generation instead of deleting keys, and readers take the generation
// before querying the source, so a result computed before a commit is
// written under a generation no later reader looks at.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/common/metrics"
	"verification-workflow/internal/models"
	"verification-workflow/internal/workflow"

	"github.com/redis/go-redis/v9"
)

const (
	StatsKey      = "verification:stats"
	MetricsKey    = "verification:metrics"
	GenerationKey = "verification:stats:generation"
)

// CacheKey is the key holding base for generation gen.
func CacheKey(base string, gen int64) string {
	return fmt.Sprintf("%s:%d", base, gen)
}

// Source computes aggregates directly from storage.
type Source interface {
	Stats(ctx context.Context) (*models.Stats, error)
	Metrics(ctx context.Context) (*models.VerificationMetrics, error)
}

type Aggregator struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewAggregator wraps source. A nil redis client disables caching.
func NewAggregator(source Source, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "stats-aggregator"}),
	}
}

func (a *Aggregator) Stats(ctx context.Context) (*models.Stats, error) {
	gen, cached := a.generation(ctx)
	key := CacheKey(StatsKey, gen)

	var out models.Stats
	if cached && a.lookup(ctx, key, &out) {
		return &out, nil
	}
	stats, err := a.source.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if cached {
		a.store(ctx, key, stats)
	}
	return stats, nil
}

func (a *Aggregator) Metrics(ctx context.Context) (*models.VerificationMetrics, error) {
	gen, cached := a.generation(ctx)
	key := CacheKey(MetricsKey, gen)

	var out models.VerificationMetrics
	if cached && a.lookup(ctx, key, &out) {
		return &out, nil
	}
	m, err := a.source.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	if cached {
		a.store(ctx, key, m)
	}
	return m, nil
}

// Invalidate moves readers to a new generation. Entries of older
// generations are never read again and expire with their TTL.
func (a *Aggregator) Invalidate(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Incr(ctx, GenerationKey).Err()
}

// generation reports the current generation. The cache is bypassed when
// redis is disabled or the generation cannot be read.
func (a *Aggregator) generation(ctx context.Context) (int64, bool) {
	if a.redis == nil {
		return 0, false
	}
	gen, err := a.redis.Get(ctx, GenerationKey).Int64()
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, redis.Nil):
		return 0, true
	default:
		metrics.StatsCacheLookups.WithLabelValues("error").Inc()
		a.logger.Warn("stats cache generation read failed", map[string]interface{}{"error": err})
		return 0, false
	}
}

func (a *Aggregator) Name() string { return "stats-cache" }

// AfterCommit invalidates the cache; every committed change can move counts.
func (a *Aggregator) AfterCommit(ctx context.Context, _ workflow.Event) error {
	return a.Invalidate(ctx)
}

func (a *Aggregator) lookup(ctx context.Context, key string, dst interface{}) bool {
	if a.redis == nil {
		return false
	}
	val, err := a.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.StatsCacheLookups.WithLabelValues("error").Inc()
			a.logger.Warn("stats cache read failed", map[string]interface{}{"key": key, "error": err})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		metrics.StatsCacheLookups.WithLabelValues("error").Inc()
		return false
	}
	metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (a *Aggregator) store(ctx context.Context, key string, v interface{}) {
	if a.redis == nil || a.ttl <= 0 {
		return
	}
	data, _ := json.Marshal(v)
	if err := a.redis.Set(ctx, key, data, a.ttl).Err(); err != nil {
		a.logger.Warn("stats cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}
