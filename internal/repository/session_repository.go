package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/unieval/evaluation-backend/internal/config"
)

// SessionRepository keeps one live token id per user in Redis.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Set stores the token id, replacing any previous one.
func (r *SessionRepository) Set(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID), tokenID, ttl).Err()
}

// Get returns the live token id, or "" when the user has none.
func (r *SessionRepository) Get(ctx context.Context, userID int64) (string, error) {
	v, err := r.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Delete drops the user's session.
func (r *SessionRepository) Delete(ctx context.Context, userID int64) error {
	return r.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}
