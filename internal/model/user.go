package model

import "time"

// Role enumerates what a user may do on the platform.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleTeacher        Role = "teacher"
	RoleStudent        Role = "student"
	RoleQualityManager Role = "quality_manager"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleQualityManager:
		return true
	}
	return false
}

// User represents an account of any role.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   string    `json:"department"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Role       string `json:"role" binding:"required,oneof=admin teacher student quality_manager"`
	Department string `json:"department" binding:"omitempty,max=255"`
	FirstName  string `json:"first_name" binding:"omitempty,max=100"`
	LastName   string `json:"last_name" binding:"omitempty,max=100"`
}

// UpdateUserRequest edits an account. Omitted fields keep their current value.
type UpdateUserRequest struct {
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	Role       *string `json:"role" binding:"omitempty,oneof=admin teacher student quality_manager"`
	Department *string `json:"department" binding:"omitempty,max=255"`
	FirstName  *string `json:"first_name" binding:"omitempty,max=100"`
	LastName   *string `json:"last_name" binding:"omitempty,max=100"`
}
