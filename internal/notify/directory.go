package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
)

// RepositoryDirectory implements Directory over the Postgres repositories.
type RepositoryDirectory struct {
	users          *repository.UserRepository
	questionnaires *repository.QuestionnaireRepository
}

// NewRepositoryDirectory creates a new RepositoryDirectory.
func NewRepositoryDirectory(users *repository.UserRepository, questionnaires *repository.QuestionnaireRepository) *RepositoryDirectory {
	return &RepositoryDirectory{users: users, questionnaires: questionnaires}
}

func (d *RepositoryDirectory) StudentsOfCourse(ctx context.Context, courseID int64) ([]model.User, error) {
	users, err := d.users.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students := users[:0]
	for _, u := range users {
		if u.Role == model.RoleStudent {
			students = append(students, u)
		}
	}
	return students, nil
}

func (d *RepositoryDirectory) Admins(ctx context.Context) ([]model.User, error) {
	return d.users.List(ctx, model.RoleAdmin)
}

func (d *RepositoryDirectory) QuestionnaireTitle(ctx context.Context, id uuid.UUID) (string, error) {
	q, err := d.questionnaires.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return q.Title, nil
}
