package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
)

// NewRedisClient connects the client used for sessions, the paper cache and
// the monitor feed.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opt.ClientName == "" {
		opt.ClientName = applicationName
	}

	rdb := redis.NewClient(opt)

	err = retry(ctx, cfg.ConnectAttempts, time.Second, func(attempt int) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Redis not ready")
			return err
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}
