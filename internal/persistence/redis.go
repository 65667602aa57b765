package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/config"
	"github.com/spec-kit/helpdesk-sync/internal/events"
)

const redisConnectTimeout = 3 * time.Second

// Redis carries change notifications between processes sharing a store.
type Redis struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedis builds the client and tries one ping. An unreachable server is
// only logged: go-redis dials again on first use, and subscriptions
// report their own failures.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(redisOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("change feed redis unreachable", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("change feed on redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client, logger: logger}
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisConnectTimeout,
	}
}

// ChangeFeed returns a dispatcher publishing on channels named
// prefix + topic.
func (r *Redis) ChangeFeed(prefix string) *events.RedisDispatcher {
	return events.NewRedisDispatcher(r.Client, prefix, r.logger.Named("events"))
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping reports whether the change feed is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
