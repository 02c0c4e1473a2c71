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

// MonitorRepository backs the live submission feed with Redis: a counter per
// questionnaire and a PubSub channel carrying SubmissionEvent payloads.
type MonitorRepository struct {
	rdb *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{rdb: rdb}
}

// RecordSubmission bumps the submission counter and publishes the event.
// The counter value is written into ev.TotalSubmissions.
func (r *MonitorRepository) RecordSubmission(ctx context.Context, ev *model.SubmissionEvent) error {
	total, err := r.rdb.Incr(ctx, config.CacheKey.QuestionnaireSubmissionCountKey(ev.QuestionnaireID)).Result()
	if err != nil {
		return fmt.Errorf("incr submissions: %w", err)
	}
	ev.TotalSubmissions = total

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return r.rdb.Publish(ctx, config.CacheKey.QuestionnaireMonitorChannel(ev.QuestionnaireID), payload).Err()
}

// SubmissionCount returns the current counter, 0 when nothing was recorded.
func (r *MonitorRepository) SubmissionCount(ctx context.Context, questionnaireID uuid.UUID) (int64, error) {
	n, err := r.rdb.Get(ctx, config.CacheKey.QuestionnaireSubmissionCountKey(questionnaireID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Watch streams the submission events of one questionnaire until ctx is
// done. The subscription is confirmed before Watch returns, so no event
// published afterwards is missed. The channel closes when ctx ends.
func (r *MonitorRepository) Watch(ctx context.Context, questionnaireID uuid.UUID) (<-chan *model.SubmissionEvent, error) {
	pubsub := r.rdb.Subscribe(ctx, config.CacheKey.QuestionnaireMonitorChannel(questionnaireID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe monitor: %w", err)
	}

	out := make(chan *model.SubmissionEvent, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev model.SubmissionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
