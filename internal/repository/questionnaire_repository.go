package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unieval/evaluation-backend/internal/model"
)

const questionnaireColumns = `id, title, description, course_id, status, deadline, created_at, updated_at`

// QuestionnaireFilter narrows a questionnaire listing. Zero values mean "any".
type QuestionnaireFilter struct {
	Status    model.QuestionnaireStatus
	CourseID  int64
	StudentID int64 // only courses this student is enrolled in
	Limit     int
	Offset    int
}

// QuestionnaireRepository handles questionnaire data access.
type QuestionnaireRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionnaireRepository creates a new QuestionnaireRepository.
func NewQuestionnaireRepository(pool *pgxpool.Pool) *QuestionnaireRepository {
	return &QuestionnaireRepository{pool: pool}
}

func scanQuestionnaire(row pgx.Row) (*model.Questionnaire, error) {
	q := &model.Questionnaire{}
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.CourseID, &q.Status,
		&q.Deadline, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// GetByID retrieves a questionnaire by its UUID.
func (r *QuestionnaireRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Questionnaire, error) {
	return scanQuestionnaire(r.pool.QueryRow(ctx,
		`SELECT `+questionnaireColumns+` FROM questionnaires WHERE id = $1`, id))
}

// List returns questionnaires matching f and the total count ignoring paging.
func (r *QuestionnaireRepository) List(ctx context.Context, f QuestionnaireFilter) ([]model.Questionnaire, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND q.status = $%d", len(args))
	}
	if f.CourseID > 0 {
		args = append(args, f.CourseID)
		where += fmt.Sprintf(" AND q.course_id = $%d", len(args))
	}
	if f.StudentID > 0 {
		args = append(args, f.StudentID)
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = q.course_id AND e.user_id = $%d)", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questionnaires q`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT q.id, q.title, q.description, q.course_id, q.status, q.deadline, q.created_at, q.updated_at
	          FROM questionnaires q` + where + ` ORDER BY q.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []model.Questionnaire
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *q)
	}
	return list, total, rows.Err()
}

// ListByStatus returns every questionnaire in status s.
// Used for cache prewarming on application startup.
func (r *QuestionnaireRepository) ListByStatus(ctx context.Context, s model.QuestionnaireStatus) ([]model.Questionnaire, error) {
	list, _, err := r.List(ctx, QuestionnaireFilter{Status: s})
	return list, err
}

// Create inserts a new questionnaire.
func (r *QuestionnaireRepository) Create(ctx context.Context, q *model.Questionnaire) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questionnaires (title, description, course_id, status, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Description, q.CourseID, q.Status, q.Deadline,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrMissingReference
		}
		return err
	}
	return nil
}

// UpdateContent rewrites the editable fields of a questionnaire that is still
// in status expect. It returns ErrNotFound when no such row matched.
func (r *QuestionnaireRepository) UpdateContent(ctx context.Context, q *model.Questionnaire, expect model.QuestionnaireStatus) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE questionnaires
		 SET title = $1, description = $2, course_id = $3, deadline = $4, updated_at = NOW()
		 WHERE id = $5 AND status = $6
		 RETURNING updated_at`,
		q.Title, q.Description, q.CourseID, q.Deadline, q.ID, expect,
	).Scan(&q.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrMissingReference
		}
		return notFound(err)
	}
	return nil
}

// UpdateStatus moves a questionnaire from status from to status to. The
// compare-and-set keeps two concurrent transitions from both succeeding; it
// returns ErrNotFound when the row is missing or no longer in from.
func (r *QuestionnaireRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.QuestionnaireStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questionnaires SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a questionnaire; questions and responses cascade.
func (r *QuestionnaireRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questionnaires WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
