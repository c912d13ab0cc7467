package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/weather/weatherapi"
)

// BuildFetcher constructs the history Fetcher:
// 1) the WeatherAPI.com history client
// 2) decorated with a Redis cache when REDIS_ADDR is set
func BuildFetcher(cfg *config.Config, logger *zap.Logger) (Fetcher, error) {
	client, err := weatherapi.NewClient(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("weatherapi client: %w", err)
	}
	if cfg.RedisAddr == "" {
		return client, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("history cache enabled", zap.String("redis", cfg.RedisAddr))

	return NewCachingFetcher(client, rdb, time.Hour, logger), nil
}
