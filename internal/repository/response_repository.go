package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unieval/evaluation-backend/internal/model"
)

// ResponseRepository handles response data access. Read paths never select
// anonymous_id.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

const insertResponse = `INSERT INTO responses (anonymous_id, questionnaire_id, question_id, answer)
	 VALUES ($1, $2, $3, $4)
	 RETURNING id, created_at`

// Create inserts one response. The unique index on (anonymous_id, question_id)
// turns a lost duplicate-check race into ErrDuplicateResponse.
func (r *ResponseRepository) Create(ctx context.Context, resp *model.Response) error {
	err := r.pool.QueryRow(ctx, insertResponse,
		resp.AnonymousID, resp.QuestionnaireID, resp.QuestionID, resp.Answer,
	).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		return translateResponseErr(err)
	}
	return nil
}

// CreateBatch inserts every response in one transaction. Nothing is kept if
// any insert fails; the failing index is reported through *BatchError.
func (r *ResponseRepository) CreateBatch(ctx context.Context, responses []*model.Response) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i, resp := range responses {
			err := tx.QueryRow(ctx, insertResponse,
				resp.AnonymousID, resp.QuestionnaireID, resp.QuestionID, resp.Answer,
			).Scan(&resp.ID, &resp.CreatedAt)
			if err != nil {
				return &BatchError{Index: i, Err: translateResponseErr(err)}
			}
		}
		return nil
	})
}

func translateResponseErr(err error) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return ErrDuplicateResponse
	case pgForeignKeyViolation:
		return ErrMissingReference
	default:
		return err
	}
}

// Exists reports whether the subject already answered the question.
func (r *ResponseRepository) Exists(ctx context.Context, anonymousID string, questionID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM responses WHERE anonymous_id = $1 AND question_id = $2)`,
		anonymousID, questionID,
	).Scan(&ok)
	return ok, err
}

// AnsweredQuestionIDs lists the questions of a questionnaire the subject already answered.
func (r *ResponseRepository) AnsweredQuestionIDs(ctx context.Context, anonymousID string, questionnaireID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM responses WHERE anonymous_id = $1 AND questionnaire_id = $2`,
		anonymousID, questionnaireID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectAnswers(rows pgx.Rows) ([]model.AnonymizedAnswer, error) {
	defer rows.Close()

	var out []model.AnonymizedAnswer
	for rows.Next() {
		var a model.AnonymizedAnswer
		if err := rows.Scan(&a.QuestionID, &a.Label, &a.Answer); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByQuestionnaire returns every answer to a questionnaire with the question label.
func (r *ResponseRepository) ListByQuestionnaire(ctx context.Context, questionnaireID uuid.UUID) ([]model.AnonymizedAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.question_id, q.label, r.answer
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 WHERE r.questionnaire_id = $1
		 ORDER BY q.order_num, r.created_at`, questionnaireID)
	if err != nil {
		return nil, err
	}
	return collectAnswers(rows)
}

// ListByQuestion returns every answer to one question.
func (r *ResponseRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]model.AnonymizedAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.question_id, q.label, r.answer
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 WHERE r.question_id = $1
		 ORDER BY r.created_at`, questionID)
	if err != nil {
		return nil, err
	}
	return collectAnswers(rows)
}

// ListBySubject returns the subject's own answers to one questionnaire.
func (r *ResponseRepository) ListBySubject(ctx context.Context, anonymousID string, questionnaireID uuid.UUID) ([]model.AnonymizedAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.question_id, q.label, r.answer
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 WHERE r.anonymous_id = $1 AND r.questionnaire_id = $2
		 ORDER BY q.order_num`, anonymousID, questionnaireID)
	if err != nil {
		return nil, err
	}
	return collectAnswers(rows)
}

// CountSubjects returns how many distinct subjects answered a questionnaire.
func (r *ResponseRepository) CountSubjects(ctx context.Context, questionnaireID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT anonymous_id) FROM responses WHERE questionnaire_id = $1`,
		questionnaireID,
	).Scan(&n)
	return n, err
}
