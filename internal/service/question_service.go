package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/answer"
	"github.com/unieval/evaluation-backend/internal/lifecycle"
	"github.com/unieval/evaluation-backend/internal/model"
)

// QuestionService manages questions. Every write requires the owning
// questionnaire to still be a draft.
type QuestionService struct {
	questions      QuestionStore
	questionnaires QuestionnaireStore
	log            zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, questionnaires QuestionnaireStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions:      questions,
		questionnaires: questionnaires,
		log:            log.With().Str("component", "question_service").Logger(),
	}
}

// ListByQuestionnaire returns a questionnaire's questions in order.
func (s *QuestionService) ListByQuestionnaire(ctx context.Context, questionnaireID uuid.UUID) ([]model.Question, error) {
	if _, err := s.questionnaires.GetByID(ctx, questionnaireID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByQuestionnaire(ctx, questionnaireID)
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, err
}

// GetByID retrieves a question.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// Create adds a question to a draft questionnaire.
func (s *QuestionService) Create(ctx context.Context, req *model.QuestionRequest) (*model.Question, error) {
	if err := s.requireDraft(ctx, req.QuestionnaireID); err != nil {
		return nil, err
	}

	q := &model.Question{QuestionnaireID: req.QuestionnaireID}
	if err := applyQuestionRequest(q, req); err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q, model.QuestionnaireStatusDraft); err != nil {
		return nil, s.writeMissed(ctx, q.QuestionnaireID, err)
	}

	s.log.Info().
		Str("questionnaire_id", q.QuestionnaireID.String()).
		Str("question_id", q.ID.String()).
		Str("type", string(q.Type)).
		Msg("Question created")
	return q, nil
}

// Update rewrites a question of a draft questionnaire.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.QuestionRequest) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireDraft(ctx, q.QuestionnaireID); err != nil {
		return nil, err
	}

	if err := applyQuestionRequest(q, req); err != nil {
		return nil, err
	}
	if err := s.questions.Update(ctx, q, model.QuestionnaireStatusDraft); err != nil {
		return nil, s.writeMissed(ctx, q.QuestionnaireID, err)
	}
	return q, nil
}

// Delete removes a question of a draft questionnaire.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireDraft(ctx, q.QuestionnaireID); err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, id, model.QuestionnaireStatusDraft); err != nil {
		return s.writeMissed(ctx, q.QuestionnaireID, err)
	}
	return nil
}

func (s *QuestionService) requireDraft(ctx context.Context, questionnaireID uuid.UUID) error {
	qn, err := s.questionnaires.GetByID(ctx, questionnaireID)
	if err != nil {
		return err
	}
	if !lifecycle.Editable(qn.Status) {
		return ErrNotDraft
	}
	return nil
}

// writeMissed explains a guarded write that matched no row: the questionnaire
// was published or deleted after requireDraft looked at it.
func (s *QuestionService) writeMissed(ctx context.Context, questionnaireID uuid.UUID, err error) error {
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if draftErr := s.requireDraft(ctx, questionnaireID); draftErr != nil {
		return draftErr
	}
	return err
}

func applyQuestionRequest(q *model.Question, req *model.QuestionRequest) error {
	qtype := model.QuestionType(req.Type)
	options, err := answer.NormalizeOptions(qtype, req.PossibleAnswers)
	if err != nil {
		return err
	}
	q.Label = strings.TrimSpace(req.Label)
	q.Type = qtype
	q.PossibleAnswers = options
	q.OrderNum = req.OrderNum
	return nil
}
