package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/model"
)

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher turns domain events into queued notification tasks.
type Dispatcher struct {
	client   Enqueuer
	maxRetry int
	log      zerolog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(client Enqueuer, maxRetry int, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		maxRetry: maxRetry,
		log:      log.With().Str("component", "notify_dispatcher").Logger(),
	}
}

// QuestionnairePublished enqueues the enrolled-student fan-out. Enqueueing
// the same questionnaire twice is a no-op.
func (d *Dispatcher) QuestionnairePublished(ctx context.Context, q *model.Questionnaire) error {
	task, err := NewQuestionnairePublishedTask(QuestionnairePublishedPayload{
		QuestionnaireID: q.ID,
		Title:           q.Title,
		CourseID:        q.CourseID,
		Deadline:        q.Deadline,
	})
	if err != nil {
		return fmt.Errorf("build task: %w", err)
	}

	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(config.WorkerKey.NotificationQueue),
		asynq.TaskID(PublishedTaskID(q.ID)),
		asynq.MaxRetry(d.maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", config.WorkerKey.QuestionnairePublishedTask, err)
	}

	d.log.Debug().Str("questionnaire_id", q.ID.String()).Msg("Publish notification queued")
	return nil
}

// ResponseSubmitted enqueues the admin notification for one accepted submission.
func (d *Dispatcher) ResponseSubmitted(ctx context.Context, questionnaireID uuid.UUID, answered int) error {
	task, err := NewResponseSubmittedTask(ResponseSubmittedPayload{
		QuestionnaireID: questionnaireID,
		Answered:        answered,
	})
	if err != nil {
		return fmt.Errorf("build task: %w", err)
	}

	if _, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(config.WorkerKey.NotificationQueue),
		asynq.MaxRetry(d.maxRetry),
	); err != nil {
		return fmt.Errorf("enqueue %s: %w", config.WorkerKey.ResponseSubmittedTask, err)
	}
	return nil
}
