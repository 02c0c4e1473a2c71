package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/answer"
	"github.com/unieval/evaluation-backend/internal/lifecycle"
	"github.com/unieval/evaluation-backend/internal/metrics"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/pseudonym"
	"github.com/unieval/evaluation-backend/internal/repository"
)

// ResponseOptions tunes the response ledger.
type ResponseOptions struct {
	// EnforceDeadline rejects submissions once a questionnaire's deadline is behind us.
	EnforceDeadline bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// ResponseService is the response ledger. It stores validated answers keyed
// by a pseudonymous subject token and never hands that token back out.
type ResponseService struct {
	questionnaires QuestionnaireStore
	questions      QuestionStore
	responses      ResponseStore
	gate           *EnrollmentService
	pseudo         *pseudonym.Pseudonymizer
	feed           LiveFeed
	notifier       Notifier
	bg             *Background
	opts           ResponseOptions
	log            zerolog.Logger
}

// NewResponseService creates a new ResponseService.
func NewResponseService(
	questionnaires QuestionnaireStore,
	questions QuestionStore,
	responses ResponseStore,
	gate *EnrollmentService,
	pseudo *pseudonym.Pseudonymizer,
	feed LiveFeed,
	notifier Notifier,
	bg *Background,
	opts ResponseOptions,
	log zerolog.Logger,
) *ResponseService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ResponseService{
		questionnaires: questionnaires,
		questions:      questions,
		responses:      responses,
		gate:           gate,
		pseudo:         pseudo,
		feed:           feed,
		notifier:       notifier,
		bg:             bg,
		opts:           opts,
		log:            log.With().Str("component", "response_service").Logger(),
	}
}

// Submit records one answer. Checks run in a fixed order and the first
// failure wins: questionnaire open, student enrolled, question belongs,
// answer valid, not yet answered.
func (s *ResponseService) Submit(ctx context.Context, studentID int64, req *model.SubmitResponseRequest) (resp *model.Response, err error) {
	defer func() { observeSubmission("single", err) }()

	q, err := s.openQuestionnaire(ctx, req.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrolled(ctx, studentID, q.CourseID); err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.QuestionnaireID != q.ID {
		return nil, ErrQuestionMismatch
	}
	if err := answer.ValidateQuestion(question, req.Answer); err != nil {
		return nil, err
	}

	token := s.pseudo.Token(studentID, q.ID)
	exists, err := s.responses.Exists(ctx, token, question.ID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, ErrDuplicateResponse
	}

	encoded, err := req.Answer.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}
	resp = &model.Response{
		AnonymousID:     token,
		QuestionnaireID: q.ID,
		QuestionID:      question.ID,
		Answer:          encoded,
	}
	if err := s.responses.Create(ctx, resp); err != nil {
		return nil, err
	}

	s.accepted(q.ID, []uuid.UUID{question.ID})
	return resp, nil
}

// SubmitFull records answers to several questions of one questionnaire as a
// single unit: every item is validated and duplicate-checked first, then all
// rows are written in one transaction. A failing item is reported as a
// *repository.BatchError carrying its index.
func (s *ResponseService) SubmitFull(ctx context.Context, studentID int64, req *model.SubmitFullQuestionnaireRequest) (saved []*model.Response, err error) {
	defer func() { observeSubmission("batch", err) }()

	q, err := s.openQuestionnaire(ctx, req.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrolled(ctx, studentID, q.CourseID); err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByQuestionnaire(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	token := s.pseudo.Token(studentID, q.ID)
	answered, err := s.responses.AnsweredQuestionIDs(ctx, token, q.ID)
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(answered)+len(req.Responses))
	for _, id := range answered {
		seen[id] = struct{}{}
	}

	batch := make([]*model.Response, 0, len(req.Responses))
	ids := make([]uuid.UUID, 0, len(req.Responses))
	for i, item := range req.Responses {
		question, ok := byID[item.QuestionID]
		if !ok {
			return nil, &repository.BatchError{Index: i, Err: ErrQuestionMismatch}
		}
		if err := answer.ValidateQuestion(question, item.Answer); err != nil {
			return nil, &repository.BatchError{Index: i, Err: err}
		}
		if _, dup := seen[question.ID]; dup {
			return nil, &repository.BatchError{Index: i, Err: ErrDuplicateResponse}
		}
		seen[question.ID] = struct{}{}

		encoded, err := item.Answer.Encode()
		if err != nil {
			return nil, &repository.BatchError{Index: i, Err: fmt.Errorf("encode answer: %w", err)}
		}
		batch = append(batch, &model.Response{
			AnonymousID:     token,
			QuestionnaireID: q.ID,
			QuestionID:      question.ID,
			Answer:          encoded,
		})
		ids = append(ids, question.ID)
	}

	if err := s.responses.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.accepted(q.ID, ids)
	return batch, nil
}

// ByQuestionnaire returns every answer to a questionnaire, without subjects.
func (s *ResponseService) ByQuestionnaire(ctx context.Context, questionnaireID uuid.UUID) ([]model.AnonymizedAnswer, error) {
	if _, err := s.questionnaires.GetByID(ctx, questionnaireID); err != nil {
		return nil, err
	}
	out, err := s.responses.ListByQuestionnaire(ctx, questionnaireID)
	if out == nil {
		out = []model.AnonymizedAnswer{}
	}
	return out, err
}

// ByQuestion returns every answer to one question, without subjects.
func (s *ResponseService) ByQuestion(ctx context.Context, questionID uuid.UUID) ([]model.AnonymizedAnswer, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	out, err := s.responses.ListByQuestion(ctx, questionID)
	if out == nil {
		out = []model.AnonymizedAnswer{}
	}
	return out, err
}

// Summary tallies answers per question. Choice questions get a count per
// option; text questions only a total.
func (s *ResponseService) Summary(ctx context.Context, questionnaireID uuid.UUID) ([]model.QuestionSummary, int, error) {
	if _, err := s.questionnaires.GetByID(ctx, questionnaireID); err != nil {
		return nil, 0, err
	}
	questions, err := s.questions.ListByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.responses.ListByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	subjects, err := s.responses.CountSubjects(ctx, questionnaireID)
	if err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	summaries := make([]model.QuestionSummary, len(questions))
	index := make(map[uuid.UUID]int, len(questions))
	for i, q := range questions {
		summaries[i] = model.QuestionSummary{QuestionID: q.ID, Label: q.Label, Type: q.Type}
		if q.Type.IsChoice() {
			summaries[i].Counts = make(map[string]int, len(q.PossibleAnswers))
			for _, o := range q.PossibleAnswers {
				summaries[i].Counts[o] = 0
			}
		}
		index[q.ID] = i
	}

	for _, a := range answers {
		i, ok := index[a.QuestionID]
		if !ok {
			continue
		}
		sum := &summaries[i]
		sum.Total++
		switch sum.Type {
		case model.QuestionTypeSingleChoice, model.QuestionTypeBoolean:
			sum.Counts[a.Answer]++
		case model.QuestionTypeMultipleChoice:
			choices, err := answer.DecodeOptions([]byte(a.Answer))
			if err != nil {
				continue
			}
			for _, c := range choices {
				sum.Counts[c]++
			}
		}
	}
	return summaries, subjects, nil
}

// Mine returns the caller's own answers to a questionnaire. The subject token
// is recomputed from the caller's identity; stored rows are never traced back.
func (s *ResponseService) Mine(ctx context.Context, studentID int64, questionnaireID uuid.UUID) (*model.MyResponses, error) {
	q, err := s.questionnaires.GetByID(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if q.Status == model.QuestionnaireStatusDraft {
		return nil, ErrNotFound
	}
	if err := s.requireEnrolled(ctx, studentID, q.CourseID); err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByQuestionnaire(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.responses.ListBySubject(ctx, s.pseudo.Token(studentID, q.ID), q.ID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = []model.AnonymizedAnswer{}
	}

	return &model.MyResponses{
		QuestionnaireID: q.ID,
		Completed:       len(questions) > 0 && len(answers) >= len(questions),
		Answers:         answers,
	}, nil
}

func (s *ResponseService) openQuestionnaire(ctx context.Context, id uuid.UUID) (*model.Questionnaire, error) {
	q, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.AcceptsResponses(q.Status) {
		return nil, ErrNotPublished
	}
	if s.opts.EnforceDeadline && q.DeadlinePassed(s.opts.Now()) {
		return nil, ErrDeadlinePassed
	}
	return q, nil
}

func (s *ResponseService) requireEnrolled(ctx context.Context, studentID, courseID int64) error {
	ok, err := s.gate.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}

// accepted fans out the side effects of a stored submission. Only the
// questionnaire and question ids travel; never the subject.
func (s *ResponseService) accepted(questionnaireID uuid.UUID, questionIDs []uuid.UUID) {
	s.log.Info().
		Str("questionnaire_id", questionnaireID.String()).
		Int("answers", len(questionIDs)).
		Msg("Submission accepted")

	ev := &model.SubmissionEvent{
		Type:            model.MonitorEventSubmission,
		QuestionnaireID: questionnaireID,
		QuestionIDs:     questionIDs,
		At:              s.opts.Now().UTC(),
	}
	s.bg.Go("live_feed", func(ctx context.Context) error {
		return s.feed.RecordSubmission(ctx, ev)
	})
	s.bg.Go("notify_submitted", func(ctx context.Context) error {
		return s.notifier.ResponseSubmitted(ctx, questionnaireID, len(questionIDs))
	})
}

func observeSubmission(kind string, err error) {
	outcome := metrics.OutcomeAccepted
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicateResponse):
		outcome = metrics.OutcomeDuplicate
	case errors.Is(err, answer.ErrInvalidAnswer):
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, ErrNotEnrolled):
		outcome = metrics.OutcomeNotEnrolled
	case errors.Is(err, ErrNotPublished), errors.Is(err, ErrDeadlinePassed):
		outcome = metrics.OutcomeNotPublished
	default:
		outcome = metrics.OutcomeError
	}
	metrics.SubmissionsTotal.WithLabelValues(kind, outcome).Inc()
}
