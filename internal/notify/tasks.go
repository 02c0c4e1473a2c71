package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/unieval/evaluation-backend/internal/config"
)

// QuestionnairePublishedPayload asks the worker to mail every enrolled student.
type QuestionnairePublishedPayload struct {
	QuestionnaireID uuid.UUID  `json:"questionnaire_id"`
	Title           string     `json:"title"`
	CourseID        int64      `json:"course_id"`
	Deadline        *time.Time `json:"deadline,omitempty"`
}

// ResponseSubmittedPayload asks the worker to tell admins a submission came in.
// It carries counts only.
type ResponseSubmittedPayload struct {
	QuestionnaireID uuid.UUID `json:"questionnaire_id"`
	Answered        int       `json:"answered"`
}

// NewQuestionnairePublishedTask builds the fan-out task.
func NewQuestionnairePublishedTask(p QuestionnairePublishedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(config.WorkerKey.QuestionnairePublishedTask, b), nil
}

// NewResponseSubmittedTask builds the admin notification task.
func NewResponseSubmittedTask(p ResponseSubmittedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(config.WorkerKey.ResponseSubmittedTask, b), nil
}

// PublishedTaskID dedupes the fan-out: a questionnaire is published once.
func PublishedTaskID(questionnaireID uuid.UUID) string {
	return "questionnaire-published-" + questionnaireID.String()
}
