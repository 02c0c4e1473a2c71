package model

import (
	"github.com/google/uuid"
)

// QuestionType is the declared answer shape of a question.
type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	// QuestionTypeBoolean is kept on the wire for older clients. It is
	// validated as a single choice over exactly two options.
	QuestionTypeBoolean QuestionType = "boolean"
)

// IsValid reports whether t is a known question type.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeText, QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeBoolean:
		return true
	}
	return false
}

// IsChoice reports whether answers must be picked from PossibleAnswers.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultipleChoice || t == QuestionTypeBoolean
}

// Question belongs to exactly one questionnaire.
type Question struct {
	ID              uuid.UUID    `json:"id"`
	QuestionnaireID uuid.UUID    `json:"questionnaire_id"`
	Label           string       `json:"label"`
	Type            QuestionType `json:"type"`
	PossibleAnswers []string     `json:"possible_answers"`
	OrderNum        int          `json:"order_num"`
}

// QuestionForStudent is the student-facing view of a question.
type QuestionForStudent struct {
	ID              uuid.UUID    `json:"id"`
	Label           string       `json:"label"`
	Type            QuestionType `json:"type"`
	PossibleAnswers []string     `json:"possible_answers"`
	OrderNum        int          `json:"order_num"`
}

// QuestionRequest is the payload for creating or updating a question.
// QuestionnaireID is required on create and ignored on update.
type QuestionRequest struct {
	QuestionnaireID uuid.UUID `json:"questionnaire_id"`
	Label           string    `json:"label" binding:"required,notblank,max=2000"`
	Type            string    `json:"type" binding:"required,oneof=text single_choice multiple_choice boolean"`
	PossibleAnswers []string  `json:"possible_answers"`
	OrderNum        int       `json:"order_num" binding:"min=0"`
}
