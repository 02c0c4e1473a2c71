package model

import (
	"time"

	"github.com/google/uuid"
)

// Response is one stored answer. AnonymousID is the pseudonymous subject
// token and is never serialized.
type Response struct {
	ID              uuid.UUID `json:"id"`
	AnonymousID     string    `json:"-"`
	QuestionnaireID uuid.UUID `json:"questionnaire_id"`
	QuestionID      uuid.UUID `json:"question_id"`
	Answer          string    `json:"answer"`
	CreatedAt       time.Time `json:"created_at"`
}

// AnonymizedAnswer is the only shape responses are read back in.
type AnonymizedAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Label      string    `json:"label"`
	Answer     string    `json:"answer"`
}

// SubmitResponseRequest is the payload for answering one question.
type SubmitResponseRequest struct {
	QuestionnaireID uuid.UUID   `json:"questionnaire_id" binding:"required"`
	QuestionID      uuid.UUID   `json:"question_id" binding:"required"`
	Answer          AnswerValue `json:"answer"`
}

// ResponseItem is one (question, answer) pair of a full submission.
type ResponseItem struct {
	QuestionID uuid.UUID   `json:"question_id" binding:"required"`
	Answer     AnswerValue `json:"answer"`
}

// SubmitFullQuestionnaireRequest is the payload for answering a whole questionnaire at once.
type SubmitFullQuestionnaireRequest struct {
	QuestionnaireID uuid.UUID      `json:"questionnaire_id" binding:"required"`
	Responses       []ResponseItem `json:"responses" binding:"required,min=1,dive"`
}

// QuestionSummary tallies the answers given to one question.
type QuestionSummary struct {
	QuestionID uuid.UUID      `json:"question_id"`
	Label      string         `json:"label"`
	Type       QuestionType   `json:"type"`
	Total      int            `json:"total"`
	Counts     map[string]int `json:"counts,omitempty"`
}

// MyResponses is what a student sees of their own answers to a questionnaire.
type MyResponses struct {
	QuestionnaireID uuid.UUID          `json:"questionnaire_id"`
	Completed       bool               `json:"completed"`
	Answers         []AnonymizedAnswer `json:"answers"`
}
