package websocket

import (
	"time"

	"github.com/google/uuid"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventSnapshot   Event = "snapshot"
	EventSubmission Event = "submission"
	EventPong       Event = "pong"
	EventPing       Event = "ping"
)

// SnapshotResponse is sent once when a watcher attaches.
type SnapshotResponse struct {
	Event            Event     `json:"event"`
	QuestionnaireID  uuid.UUID `json:"questionnaire_id"`
	Status           string    `json:"status"`
	TotalSubmissions int64     `json:"total_submissions"`
}

// SubmissionResponse is sent for every accepted submission. It carries
// counts and question ids only.
type SubmissionResponse struct {
	Event            Event       `json:"event"`
	QuestionnaireID  uuid.UUID   `json:"questionnaire_id"`
	QuestionIDs      []uuid.UUID `json:"question_ids"`
	TotalSubmissions int64       `json:"total_submissions"`
	At               time.Time   `json:"at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type PingResponse struct {
	Event Event `json:"event"`
}
