package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionnaireStatus enumerates the lifecycle states of a questionnaire.
type QuestionnaireStatus string

const (
	QuestionnaireStatusDraft     QuestionnaireStatus = "draft"
	QuestionnaireStatusPublished QuestionnaireStatus = "published"
	QuestionnaireStatusClosed    QuestionnaireStatus = "closed"
)

// IsValid reports whether s is a known status.
func (s QuestionnaireStatus) IsValid() bool {
	switch s {
	case QuestionnaireStatusDraft, QuestionnaireStatusPublished, QuestionnaireStatusClosed:
		return true
	}
	return false
}

// Questionnaire is an evaluation form bound to a course.
type Questionnaire struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CourseID    int64               `json:"course_id"`
	Status      QuestionnaireStatus `json:"status"`
	Deadline    *time.Time          `json:"deadline,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// DeadlinePassed reports whether the deadline is set and already behind now.
func (q *Questionnaire) DeadlinePassed(now time.Time) bool {
	return q.Deadline != nil && now.After(*q.Deadline)
}

// CreateQuestionnaireRequest is the payload for creating a questionnaire.
// Status may ask for immediate publication; it defaults to draft.
type CreateQuestionnaireRequest struct {
	Title       string     `json:"title" binding:"required,notblank,min=3,max=255"`
	Description string     `json:"description" binding:"omitempty,max=5000"`
	CourseID    int64      `json:"course_id" binding:"required,min=1"`
	Status      string     `json:"status" binding:"omitempty,oneof=draft published"`
	Deadline    *time.Time `json:"deadline" binding:"omitempty"`
}

// UpdateQuestionnaireRequest is the payload for editing a draft questionnaire.
// Omitted fields keep their current value.
type UpdateQuestionnaireRequest struct {
	Title         *string    `json:"title" binding:"omitempty,notblank,min=3,max=255"`
	Description   *string    `json:"description" binding:"omitempty,max=5000"`
	CourseID      *int64     `json:"course_id" binding:"omitempty,min=1"`
	Deadline      *time.Time `json:"deadline" binding:"omitempty"`
	ClearDeadline bool       `json:"clear_deadline"`
}

// QuestionnairePaper is the Redis-cached form sent to students.
type QuestionnairePaper struct {
	QuestionnaireID uuid.UUID            `json:"questionnaire_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Deadline        *time.Time           `json:"deadline,omitempty"`
	Questions       []QuestionForStudent `json:"questions"`
}
