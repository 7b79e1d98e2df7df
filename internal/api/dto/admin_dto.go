package dto

import "github.com/spec-kit/leadflow/internal/domain"

// CreateUserRequest payload for the admin directory.
type CreateUserRequest struct {
	Name     string        `json:"name" validate:"required,max=120"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6,max=72"`
	Roles    []domain.Role `json:"roles" validate:"omitempty,dive,oneof=admin sales_manager salesperson"`
}

// UpdateUserRequest carries optional changes.
type UpdateUserRequest struct {
	Name   *string        `json:"name" validate:"omitempty,max=120"`
	Email  *string        `json:"email" validate:"omitempty,email"`
	Roles  *[]domain.Role `json:"roles" validate:"omitempty,dive,oneof=admin sales_manager salesperson"`
	Active *bool          `json:"active"`
}

// SetPasswordRequest replaces a user's password.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}
