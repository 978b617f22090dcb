// Package cache puts a Redis read-through cache in front of the user store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"verification-workflow/internal/common/logger"
	"verification-workflow/internal/models"

	"github.com/redis/go-redis/v9"
)

// UserSource is the uncached user store.
type UserSource interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetVerifier(ctx context.Context, id string) (*models.User, error)
}

// Directory caches verifier lookups. Misses and errors from the source are
// never cached, so a newly provisioned verifier is visible immediately.
// A nil Redis client disables caching.
type Directory struct {
	source UserSource
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewDirectory(source UserSource, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Directory {
	return &Directory{
		source: source,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "verifier-cache"}),
	}
}

func verifierKey(id string) string { return "verifier:" + id }

func (d *Directory) GetVerifier(ctx context.Context, id string) (*models.User, error) {
	if d.redis == nil {
		return d.source.GetVerifier(ctx, id)
	}

	key := verifierKey(id)
	if val, err := d.redis.Get(ctx, key).Result(); err == nil {
		var u models.User
		if err := json.Unmarshal([]byte(val), &u); err == nil {
			return &u, nil
		}
	}

	u, err := d.source.GetVerifier(ctx, id)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(u)
	if err := d.redis.Set(ctx, key, data, d.ttl).Err(); err != nil {
		d.logger.Debug("verifier cache write failed", map[string]interface{}{"verifierId": id, "error": err})
	}
	return u, nil
}

// GetUser is not cached; it backs notifications and certificate rendering.
func (d *Directory) GetUser(ctx context.Context, id string) (*models.User, error) {
	return d.source.GetUser(ctx, id)
}

// Evict removes a verifier so the next lookup reads the source.
func (d *Directory) Evict(ctx context.Context, id string) error {
	if d.redis == nil {
		return nil
	}
	return d.redis.Del(ctx, verifierKey(id)).Err()
}
