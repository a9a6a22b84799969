package cache

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"billing-backend/internal/config"
	"billing-backend/internal/logging"
)

// Connect returns nil clients when no redis address is configured; callers
// treat a nil locker as "no distributed lock".
func Connect(cfg *config.Config) (*redis.Client, *redislock.Client) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.LogError("cache", "Connect", "redis ping", cfg.RedisAddr, err)
		_ = rdb.Close()
		return nil, nil
	}

	logging.GetLogger().WithField("addr", cfg.RedisAddr).Info("redis connected")
	return rdb, redislock.New(rdb)
}
