package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unieval/evaluation-backend/internal/answer"
	"github.com/unieval/evaluation-backend/internal/model"
)

// QuestionRepository handles question data access. The possible_answers
// column is decoded into a typed list here and nowhere else.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	var raw []byte
	if err := row.Scan(&q.ID, &q.QuestionnaireID, &q.Label, &q.Type, &raw, &q.OrderNum); err != nil {
		return nil, notFound(err)
	}
	opts, err := answer.DecodeOptions(raw)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", q.ID, err)
	}
	q.PossibleAnswers = opts
	return q, nil
}

// ListByQuestionnaire retrieves all questions of a questionnaire, ordered by order_num.
func (r *QuestionRepository) ListByQuestionnaire(ctx context.Context, questionnaireID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, questionnaire_id, label, type, possible_answers, order_num
		 FROM questions WHERE questionnaire_id = $1
		 ORDER BY order_num, id`, questionnaireID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a question by its UUID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT id, questionnaire_id, label, type, possible_answers, order_num
		 FROM questions WHERE id = $1`, id))
}

// editableGuard matches while the owning questionnaire is in the given status.
// FOR SHARE orders the write against a concurrent status change: the change
// either waits for the write or the write sees the new status.
const editableGuard = `EXISTS (SELECT 1 FROM questionnaires qn
		 WHERE qn.id = %s AND qn.status = %s FOR SHARE)`

// Create inserts a new question while its questionnaire is in status expect.
// It returns ErrNotFound when the questionnaire is missing or in another status.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question, expect model.QuestionnaireStatus) error {
	raw, err := answer.EncodeOptions(q.PossibleAnswers)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO questions (questionnaire_id, label, type, possible_answers, order_num)
		 SELECT $1::uuid, $2::text, $3::varchar, $4::jsonb, $5::int
		 WHERE `+fmt.Sprintf(editableGuard, "$1::uuid", "$6::varchar")+`
		 RETURNING id`,
		q.QuestionnaireID, q.Label, q.Type, raw, q.OrderNum, expect,
	).Scan(&q.ID)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrMissingReference
		}
		return notFound(err)
	}
	return nil
}

// Update rewrites a question's content while its questionnaire is in status
// expect. It returns ErrNotFound when no such row matched.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question, expect model.QuestionnaireStatus) error {
	raw, err := answer.EncodeOptions(q.PossibleAnswers)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET label = $1, type = $2, possible_answers = $3, order_num = $4
		 WHERE id = $5 AND `+fmt.Sprintf(editableGuard, "questions.questionnaire_id", "$6"),
		q.Label, q.Type, raw, q.OrderNum, q.ID, expect)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a question while its questionnaire is in status expect.
// Stored responses cascade, so the guard keeps published content intact.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID, expect model.QuestionnaireStatus) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM questions
		 WHERE id = $1 AND `+fmt.Sprintf(editableGuard, "questions.questionnaire_id", "$2"),
		id, expect)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
