package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/metrics"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
)

// Directory resolves recipients and questionnaire titles for the handlers.
type Directory interface {
	StudentsOfCourse(ctx context.Context, courseID int64) ([]model.User, error)
	Admins(ctx context.Context) ([]model.User, error)
	QuestionnaireTitle(ctx context.Context, id uuid.UUID) (string, error)
}

// Handlers executes notification tasks on the worker side.
type Handlers struct {
	dir     Directory
	sender  MailSender
	baseURL string
	log     zerolog.Logger
}

// NewHandlers creates a new Handlers.
func NewHandlers(dir Directory, sender MailSender, baseURL string, log zerolog.Logger) *Handlers {
	return &Handlers{
		dir:     dir,
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With().Str("component", "notify_handlers").Logger(),
	}
}

// Register wires every task type into mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(config.WorkerKey.QuestionnairePublishedTask, h.HandleQuestionnairePublished)
	mux.HandleFunc(config.WorkerKey.ResponseSubmittedTask, h.HandleResponseSubmitted)
}

// HandleQuestionnairePublished mails every student enrolled in the course.
// Individual delivery failures are logged; the task fails only when no mail
// at all could be sent, so asynq retries the whole fan-out.
func (h *Handlers) HandleQuestionnairePublished(ctx context.Context, t *asynq.Task) error {
	var p QuestionnairePublishedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}

	students, err := h.dir.StudentsOfCourse(ctx, p.CourseID)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	if len(students) == 0 {
		h.log.Info().Str("questionnaire_id", p.QuestionnaireID.String()).Msg("No enrolled students, nothing to send")
		return nil
	}

	link := fmt.Sprintf("%s/questionnaires/%s", h.baseURL, p.QuestionnaireID)
	subject := "New course evaluation: " + p.Title

	sent, failed := 0, 0
	for _, st := range students {
		html, err := renderPublished(displayName(st), p.Title, p.Deadline, link)
		if err != nil {
			return fmt.Errorf("render mail: %w: %w", err, asynq.SkipRetry)
		}
		if err := h.sender.Send(st.Email, subject, html); err != nil {
			failed++
			h.log.Warn().Err(err).Int64("user_id", st.ID).Msg("Send failed")
			continue
		}
		sent++
	}

	h.log.Info().
		Str("questionnaire_id", p.QuestionnaireID.String()).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Publish notification done")

	if sent == 0 {
		metrics.NotificationsTotal.WithLabelValues(config.WorkerKey.QuestionnairePublishedTask, "failed").Inc()
		return errors.New("no notification could be delivered")
	}
	metrics.NotificationsTotal.WithLabelValues(config.WorkerKey.QuestionnairePublishedTask, "sent").Inc()
	return nil
}

// HandleResponseSubmitted tells admins a submission arrived. It never learns
// who submitted.
func (h *Handlers) HandleResponseSubmitted(ctx context.Context, t *asynq.Task) error {
	var p ResponseSubmittedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}

	title, err := h.dir.QuestionnaireTitle(ctx, p.QuestionnaireID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted since; nothing to report.
			return nil
		}
		return fmt.Errorf("get questionnaire: %w", err)
	}

	admins, err := h.dir.Admins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	html, err := renderSubmitted(title, p.Answered, fmt.Sprintf("%s/questionnaires/%s/results", h.baseURL, p.QuestionnaireID))
	if err != nil {
		return fmt.Errorf("render mail: %w: %w", err, asynq.SkipRetry)
	}

	var firstErr error
	for _, a := range admins {
		if err := h.sender.Send(a.Email, "New evaluation response: "+title, html); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		metrics.NotificationsTotal.WithLabelValues(config.WorkerKey.ResponseSubmittedTask, "failed").Inc()
		return fmt.Errorf("send admin mail: %w", firstErr)
	}
	metrics.NotificationsTotal.WithLabelValues(config.WorkerKey.ResponseSubmittedTask, "sent").Inc()
	return nil
}

func displayName(u model.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
