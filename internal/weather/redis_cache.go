package weather

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/weather/types"
)

// CachingFetcher decorates another Fetcher with a Redis cache.
// Observations for past days never change, so they are kept without expiry;
// today's observation is still accumulating and only lives for todayTTL.
type CachingFetcher struct {
	inner    Fetcher
	redis    *redis.Client
	todayTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewCachingFetcher returns a Fetcher that first looks in Redis,
// falling back to inner on cache-miss.
func NewCachingFetcher(inner Fetcher, rdb *redis.Client, todayTTL time.Duration, logger *zap.Logger) *CachingFetcher {
	return &CachingFetcher{inner: inner, redis: rdb, todayTTL: todayTTL, now: time.Now, logger: logger}
}

func cacheKey(city string, day time.Time) string {
	return "weather:history:" + city + ":" + day.Format(types.DateLayout)
}

func (c *CachingFetcher) FetchDay(ctx context.Context, city string, day time.Time) (types.Record, error) {
	key := cacheKey(city, day)

	// 1) Try cache
	raw, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var r types.Record
		if uerr := json.Unmarshal([]byte(raw), &r); uerr == nil {
			c.logger.Debug("cache hit", zap.String("city", city), zap.String("date", day.Format(types.DateLayout)))
			return r, nil
		} else {
			c.logger.Warn("cache unmarshal failed", zap.Error(uerr))
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("redis GET failed", zap.Error(err))
	}

	// 2) Cache-miss -> delegate to inner
	r, err := c.inner.FetchDay(ctx, city, day)
	if err != nil {
		return r, err
	}

	// 3) Store in cache
	var ttl time.Duration // 0 = no expiry
	if !types.Day(day).Before(types.Day(c.now())) {
		ttl = c.todayTTL
	}
	blob, merr := json.Marshal(r)
	if merr != nil {
		c.logger.Warn("json marshal failed", zap.Error(merr))
	} else if serr := c.redis.Set(ctx, key, blob, ttl).Err(); serr != nil {
		c.logger.Warn("redis SET failed", zap.Error(serr))
	}

	return r, nil
}
