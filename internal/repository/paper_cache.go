package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/model"
)

// ErrCacheMiss is returned when a paper is not cached.
var ErrCacheMiss = errors.New("paper not cached")

// PaperCache stores the student-facing form of published questionnaires in Redis.
type PaperCache struct {
	rdb *redis.Client
}

// NewPaperCache creates a new PaperCache.
func NewPaperCache(rdb *redis.Client) *PaperCache {
	return &PaperCache{rdb: rdb}
}

// Get loads a cached paper.
func (c *PaperCache) Get(ctx context.Context, questionnaireID uuid.UUID) (*model.QuestionnairePaper, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.QuestionnairePaperKey(questionnaireID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	var paper model.QuestionnairePaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// Set caches a paper with no expiry; it lives until the questionnaire closes.
func (c *PaperCache) Set(ctx context.Context, paper *model.QuestionnairePaper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.QuestionnairePaperKey(paper.QuestionnaireID), data, 0).Err(); err != nil {
		return fmt.Errorf("cache paper: %w", err)
	}
	return nil
}

// Delete drops a cached paper and its submission counter.
func (c *PaperCache) Delete(ctx context.Context, questionnaireID uuid.UUID) error {
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.QuestionnairePaperKey(questionnaireID))
	pipe.Del(ctx, config.CacheKey.QuestionnaireSubmissionCountKey(questionnaireID))
	_, err := pipe.Exec(ctx)
	return err
}
