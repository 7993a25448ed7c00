package facility

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Cache is the subset of *redis.Client used for facility lists.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedSource keeps filtered active-facility lists in Redis for a short TTL.
// Cache failures fall through to the wrapped source.
type CachedSource struct {
	next   Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSource(next Source, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(f storage.FacilityFilter) string {
	return "facilities:active:" + f.Type + ":" + f.Specialty
}

func (c *CachedSource) ActiveFacilities(ctx context.Context, f storage.FacilityFilter) ([]model.Facility, error) {
	key := cacheKey(f)
	raw, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []model.Facility
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		c.logger.Warn("discarding undecodable facility cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("facility cache read failed", "key", key, "err", err)
	}

	out, err := c.next.ActiveFacilities(ctx, f)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(out); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("facility cache write failed", "key", key, "err", err)
		}
	}
	return out, nil
}
