package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/model"
)

// UserService manages accounts.
type UserService struct {
	users UserStore
	auth  *AuthService
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// Create registers a user with a hashed password.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	role := model.Role(req.Role)
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
		Department:   strings.TrimSpace(req.Department),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(role)).Msg("User created")
	return user, nil
}

// GetByID retrieves a user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByEmail looks a user up by address, ignoring case and surrounding space.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

// Update edits an account. Callers cannot change their own role. A role
// change revokes the user's session so the old role's token stops working.
func (s *UserService) Update(ctx context.Context, actor Actor, id int64, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevRole := user.Role

	if req.Role != nil {
		role := model.Role(*req.Role)
		if !role.IsValid() {
			return nil, ErrInvalidRole
		}
		if role != prevRole && actor.UserID == id {
			return nil, ErrForbidden
		}
		user.Role = role
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.Role != prevRole {
		if err := s.auth.Logout(ctx, id); err != nil {
			s.log.Warn().Err(err).Int64("user_id", id).Msg("Failed to revoke session after role change")
		}
	}
	s.log.Info().Int64("user_id", id).Str("role", string(user.Role)).Msg("User updated")
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List returns all users, or only those with role when it is non-empty.
func (s *UserService) List(ctx context.Context, role model.Role) ([]model.User, error) {
	if role != "" && !role.IsValid() {
		return nil, ErrInvalidRole
	}
	users, err := s.users.List(ctx, role)
	if users == nil {
		users = []model.User{}
	}
	return users, err
}

// ListByCourse returns the users enrolled in a course.
func (s *UserService) ListByCourse(ctx context.Context, courseID int64) ([]model.User, error) {
	users, err := s.users.ListByCourse(ctx, courseID)
	if users == nil {
		users = []model.User{}
	}
	return users, err
}

// Delete removes a user. Callers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int64) error {
	if actor.UserID == id {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}
