package events

import (
	"context"
	"fmt"
	"log/slog"

	"guardx/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil, nil when no Redis address is configured.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
	return rdb, nil
}

func CloseRedis(rdb *redis.Client) {
	if rdb != nil {
		rdb.Close()
		slog.Info("Redis connection closed")
	}
}
