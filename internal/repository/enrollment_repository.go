package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository handles enrollment data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// Create enrolls a user in a course.
func (r *EnrollmentRepository) Create(ctx context.Context, userID, courseID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2)`, userID, courseID)
	switch pgCode(err) {
	case "":
		return err
	case pgUniqueViolation:
		return ErrAlreadyEnrolled
	case pgForeignKeyViolation:
		return ErrMissingReference
	default:
		return err
	}
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, userID, courseID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the user is enrolled in the course.
func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID,
	).Scan(&ok)
	return ok, err
}
