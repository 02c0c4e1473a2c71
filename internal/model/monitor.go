package model

import (
	"time"

	"github.com/google/uuid"
)

// MonitorEventSubmission is the type tag of a live submission event.
const MonitorEventSubmission = "submission"

// SubmissionEvent is published on the live feed for every accepted submission.
// It carries counts only, never a subject identity or answer text.
type SubmissionEvent struct {
	Type             string      `json:"type"`
	QuestionnaireID  uuid.UUID   `json:"questionnaire_id"`
	QuestionIDs      []uuid.UUID `json:"question_ids"`
	TotalSubmissions int64       `json:"total_submissions"`
	At               time.Time   `json:"at"`
}
