package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"funding-match-workers/internal/common/logger"
	"funding-match-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "profile:"

// CachedSource is a read-through Redis cache in front of another Source.
// Cache failures are logged and never fail a lookup.
type CachedSource struct {
	next   Source
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(next Source, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func CacheKey(businessID string) string {
	return cacheKeyPrefix + businessID
}

func (c *CachedSource) Get(ctx context.Context, businessID string) (*models.BusinessProfile, error) {
	key := CacheKey(businessID)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var profile models.BusinessProfile
		if uerr := json.Unmarshal([]byte(val), &profile); uerr == nil {
			return &profile, nil
		}
		c.logger.Warn("discarding unreadable cached profile", map[string]interface{}{"businessId": businessID})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("profile cache read failed", map[string]interface{}{"businessId": businessID, "error": err})
	}

	profile, err := c.next.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(profile)
	if err == nil {
		if serr := c.redis.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.logger.Warn("profile cache write failed", map[string]interface{}{"businessId": businessID, "error": serr})
		}
	}
	return profile, nil
}

// Invalidate drops the cached profile so the next Get reads the source.
func (c *CachedSource) Invalidate(ctx context.Context, businessID string) error {
	return c.redis.Del(ctx, CacheKey(businessID)).Err()
}
