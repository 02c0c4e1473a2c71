package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unieval/evaluation-backend/internal/model"
)

const userColumns = `id, email, password_hash, role, department, first_name, last_name, created_at, updated_at`

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Department,
		&u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// List returns all users, optionally filtered by role.
func (r *UserRepository) List(ctx context.Context, role model.Role) ([]model.User, error) {
	if role == "" {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
		if err != nil {
			return nil, err
		}
		return collectUsers(rows)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, role)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// ListByCourse returns the students enrolled in a course.
func (r *UserRepository) ListByCourse(ctx context.Context, courseID int64) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.password_hash, u.role, u.department, u.first_name, u.last_name, u.created_at, u.updated_at
		 FROM users u
		 JOIN enrollments e ON e.user_id = u.id
		 WHERE e.course_id = $1
		 ORDER BY u.id`, courseID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role, department, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.Role, u.Department, u.FirstName, u.LastName,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Update rewrites a user's profile and role. The password is left alone.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET email = $1, role = $2, department = $3, first_name = $4, last_name = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING updated_at`,
		u.Email, u.Role, u.Department, u.FirstName, u.LastName, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return notFound(err)
	}
	return nil
}

// Delete removes a user. Enrollments go with it.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
