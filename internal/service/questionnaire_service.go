package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/lifecycle"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
	"github.com/unieval/evaluation-backend/internal/response"
)

// QuestionnaireService drives questionnaire authoring and the
// draft → published → closed lifecycle.
type QuestionnaireService struct {
	questionnaires QuestionnaireStore
	questions      QuestionStore
	gate           *EnrollmentService
	papers         PaperStore
	notifier       Notifier
	bg             *Background
	log            zerolog.Logger
}

// NewQuestionnaireService creates a new QuestionnaireService.
func NewQuestionnaireService(
	questionnaires QuestionnaireStore,
	questions QuestionStore,
	gate *EnrollmentService,
	papers PaperStore,
	notifier Notifier,
	bg *Background,
	log zerolog.Logger,
) *QuestionnaireService {
	return &QuestionnaireService{
		questionnaires: questionnaires,
		questions:      questions,
		gate:           gate,
		papers:         papers,
		notifier:       notifier,
		bg:             bg,
		log:            log.With().Str("component", "questionnaire_service").Logger(),
	}
}

// Create inserts a questionnaire as draft. When the request asks for
// published it is then published through the normal transition.
func (s *QuestionnaireService) Create(ctx context.Context, req *model.CreateQuestionnaireRequest) (*model.Questionnaire, error) {
	q := &model.Questionnaire{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CourseID:    req.CourseID,
		Status:      model.QuestionnaireStatusDraft,
		Deadline:    req.Deadline,
	}
	if err := s.questionnaires.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, fmt.Errorf("course %d: %w", req.CourseID, ErrNotFound)
		}
		return nil, err
	}

	s.log.Info().Str("questionnaire_id", q.ID.String()).Int64("course_id", q.CourseID).Msg("Questionnaire created")

	if model.QuestionnaireStatus(req.Status) == model.QuestionnaireStatusPublished {
		return s.Publish(ctx, q.ID)
	}
	return q, nil
}

// Update edits a draft questionnaire. Any other status is rejected with
// ErrNotDraft regardless of the caller's role.
func (s *QuestionnaireService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionnaireRequest) (*model.Questionnaire, error) {
	q, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.Editable(q.Status) {
		return nil, ErrNotDraft
	}

	if req.Title != nil {
		q.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		q.Description = strings.TrimSpace(*req.Description)
	}
	if req.CourseID != nil {
		q.CourseID = *req.CourseID
	}
	if req.ClearDeadline {
		q.Deadline = nil
	} else if req.Deadline != nil {
		q.Deadline = req.Deadline
	}

	if err := s.questionnaires.UpdateContent(ctx, q, model.QuestionnaireStatusDraft); err != nil {
		switch {
		case errors.Is(err, repository.ErrMissingReference):
			return nil, fmt.Errorf("course %d: %w", q.CourseID, ErrNotFound)
		case errors.Is(err, ErrNotFound):
			// Published or deleted between the read and the write.
			if _, getErr := s.questionnaires.GetByID(ctx, id); getErr == nil {
				return nil, ErrNotDraft
			}
		}
		return nil, err
	}
	return q, nil
}

// Publish moves a draft to published, warms the student paper cache, and
// schedules the enrolled-student notification.
func (s *QuestionnaireService) Publish(ctx context.Context, id uuid.UUID) (*model.Questionnaire, error) {
	q, err := s.transition(ctx, id, model.QuestionnaireStatusPublished)
	if err != nil {
		return nil, err
	}

	if err := s.WarmPaper(ctx, q); err != nil {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Failed to warm paper cache")
	}

	published := *q
	s.bg.Go("notify_published", func(ctx context.Context) error {
		return s.notifier.QuestionnairePublished(ctx, &published)
	})

	return q, nil
}

// Close moves a published questionnaire to closed and drops its cached paper.
func (s *QuestionnaireService) Close(ctx context.Context, id uuid.UUID) (*model.Questionnaire, error) {
	q, err := s.transition(ctx, id, model.QuestionnaireStatusClosed)
	if err != nil {
		return nil, err
	}
	if err := s.papers.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Failed to drop paper cache")
	}
	return q, nil
}

// transition applies one state machine step. The store update is a
// compare-and-set on the current status, so of two concurrent identical
// requests exactly one succeeds and the other sees an illegal transition.
func (s *QuestionnaireService) transition(ctx context.Context, id uuid.UUID, to model.QuestionnaireStatus) (*model.Questionnaire, error) {
	q, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Transition(q.Status, to); err != nil {
		return nil, err
	}

	from := q.Status
	if err := s.questionnaires.UpdateStatus(ctx, id, from, to); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		current, getErr := s.questionnaires.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &lifecycle.TransitionError{From: current.Status, To: to}
	}

	q.Status = to
	q.UpdatedAt = time.Now()
	s.log.Info().
		Str("questionnaire_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Questionnaire status changed")
	return q, nil
}

// Delete removes a questionnaire with its questions and responses.
func (s *QuestionnaireService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.questionnaires.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.papers.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Failed to drop paper cache")
	}
	s.log.Info().Str("questionnaire_id", id.String()).Msg("Questionnaire deleted")
	return nil
}

// Get returns a questionnaire the actor may see. Students only see published
// questionnaires of their courses; anything else reads as not found.
func (s *QuestionnaireService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Questionnaire, error) {
	q, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.VisibleTo(actor.Role, q.Status) {
		return nil, ErrNotFound
	}
	if actor.Role == model.RoleStudent {
		ok, err := s.gate.IsEnrolled(ctx, actor.UserID, q.CourseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
	}
	return q, nil
}

// List returns the questionnaires visible to the actor, newest first.
// status narrows staff listings; students always get published only.
func (s *QuestionnaireService) List(ctx context.Context, actor Actor, status model.QuestionnaireStatus, page, perPage int) ([]model.Questionnaire, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	f := repository.QuestionnaireFilter{
		Status: status,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if actor.Role == model.RoleStudent {
		f.Status = model.QuestionnaireStatusPublished
		f.StudentID = actor.UserID
	}

	list, total, err := s.questionnaires.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		list = []model.Questionnaire{}
	}
	return list, response.NewPagination(page, perPage, total), nil
}

// Paper returns the student view of a published questionnaire the student
// is enrolled for, from cache when possible.
func (s *QuestionnaireService) Paper(ctx context.Context, studentID int64, id uuid.UUID) (*model.QuestionnairePaper, error) {
	q, err := s.questionnaires.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.AcceptsResponses(q.Status) {
		return nil, ErrNotPublished
	}
	ok, err := s.gate.IsEnrolled(ctx, studentID, q.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotEnrolled
	}

	paper, err := s.papers.Get(ctx, id)
	if err == nil {
		return paper, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Paper cache read failed, falling back to database")
	}

	paper, err = s.buildPaper(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.papers.Set(ctx, paper); err != nil {
		s.log.Warn().Err(err).Str("questionnaire_id", id.String()).Msg("Failed to cache paper")
	}
	return paper, nil
}

// WarmPaper builds and caches the student view of q.
func (s *QuestionnaireService) WarmPaper(ctx context.Context, q *model.Questionnaire) error {
	paper, err := s.buildPaper(ctx, q)
	if err != nil {
		return err
	}
	if err := s.papers.Set(ctx, paper); err != nil {
		return err
	}
	s.log.Debug().
		Str("questionnaire_id", q.ID.String()).
		Int("questions", len(paper.Questions)).
		Msg("Paper cache warmed")
	return nil
}

// PrewarmPapers caches every published questionnaire. Run once at startup.
func (s *QuestionnaireService) PrewarmPapers(ctx context.Context) error {
	list, err := s.questionnaires.ListByStatus(ctx, model.QuestionnaireStatusPublished)
	if err != nil {
		return fmt.Errorf("list published questionnaires: %w", err)
	}
	if len(list) == 0 {
		s.log.Info().Msg("No published questionnaires to prewarm")
		return nil
	}

	warmed := 0
	for i := range list {
		if err := s.WarmPaper(ctx, &list[i]); err != nil {
			s.log.Warn().Err(err).Str("questionnaire_id", list[i].ID.String()).Msg("Failed to warm paper, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(list)).Msg("Prewarming complete")
	return nil
}

func (s *QuestionnaireService) buildPaper(ctx context.Context, q *model.Questionnaire) (*model.QuestionnairePaper, error) {
	questions, err := s.questions.ListByQuestionnaire(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	items := make([]model.QuestionForStudent, 0, len(questions))
	for _, qq := range questions {
		items = append(items, model.QuestionForStudent{
			ID:              qq.ID,
			Label:           qq.Label,
			Type:            qq.Type,
			PossibleAnswers: qq.PossibleAnswers,
			OrderNum:        qq.OrderNum,
		})
	}

	return &model.QuestionnairePaper{
		QuestionnaireID: q.ID,
		Title:           q.Title,
		Description:     q.Description,
		Deadline:        q.Deadline,
		Questions:       items,
	}, nil
}
