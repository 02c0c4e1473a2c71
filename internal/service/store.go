package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
)

// The interfaces below are the storage surface services depend on. The
// repository package provides the Postgres and Redis implementations.

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, role model.Role) ([]model.User, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id int64) error
}

type CourseStore interface {
	List(ctx context.Context) ([]model.Course, error)
	ListByStudent(ctx context.Context, userID int64) ([]model.Course, error)
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id int64) error
}

type EnrollmentStore interface {
	Create(ctx context.Context, userID, courseID int64) error
	Delete(ctx context.Context, userID, courseID int64) error
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
}

type QuestionnaireStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Questionnaire, error)
	List(ctx context.Context, f repository.QuestionnaireFilter) ([]model.Questionnaire, int, error)
	ListByStatus(ctx context.Context, s model.QuestionnaireStatus) ([]model.Questionnaire, error)
	Create(ctx context.Context, q *model.Questionnaire) error
	UpdateContent(ctx context.Context, q *model.Questionnaire, expect model.QuestionnaireStatus) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.QuestionnaireStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type QuestionStore interface {
	ListByQuestionnaire(ctx context.Context, questionnaireID uuid.UUID) ([]model.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	// Writes apply only while the owning questionnaire is in status expect
	// and return repository.ErrNotFound otherwise.
	Create(ctx context.Context, q *model.Question, expect model.QuestionnaireStatus) error
	Update(ctx context.Context, q *model.Question, expect model.QuestionnaireStatus) error
	Delete(ctx context.Context, id uuid.UUID, expect model.QuestionnaireStatus) error
}

type ResponseStore interface {
	Create(ctx context.Context, r *model.Response) error
	CreateBatch(ctx context.Context, rs []*model.Response) error
	Exists(ctx context.Context, anonymousID string, questionID uuid.UUID) (bool, error)
	AnsweredQuestionIDs(ctx context.Context, anonymousID string, questionnaireID uuid.UUID) ([]uuid.UUID, error)
	ListByQuestionnaire(ctx context.Context, questionnaireID uuid.UUID) ([]model.AnonymizedAnswer, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]model.AnonymizedAnswer, error)
	ListBySubject(ctx context.Context, anonymousID string, questionnaireID uuid.UUID) ([]model.AnonymizedAnswer, error)
	CountSubjects(ctx context.Context, questionnaireID uuid.UUID) (int, error)
}

// SessionStore holds the one live token id per user.
type SessionStore interface {
	Set(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, userID int64) error
}

// PaperStore caches the student view of published questionnaires.
type PaperStore interface {
	Get(ctx context.Context, questionnaireID uuid.UUID) (*model.QuestionnairePaper, error)
	Set(ctx context.Context, paper *model.QuestionnairePaper) error
	Delete(ctx context.Context, questionnaireID uuid.UUID) error
}

// LiveFeed receives one event per accepted submission.
type LiveFeed interface {
	RecordSubmission(ctx context.Context, ev *model.SubmissionEvent) error
	SubmissionCount(ctx context.Context, questionnaireID uuid.UUID) (int64, error)
}

// Notifier schedules out-of-band notifications. Implementations enqueue and
// return; delivery happens elsewhere.
type Notifier interface {
	QuestionnairePublished(ctx context.Context, q *model.Questionnaire) error
	ResponseSubmitted(ctx context.Context, questionnaireID uuid.UUID, answered int) error
}
