package dto

import (
	"time"

	"github.com/spec-kit/leadflow/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangePasswordRequest payload for self-service password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User             UserResponse `json:"user"`
	Token            string       `json:"token"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	RefreshToken     string       `json:"refreshToken"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
}

// UserResponse is the public view of a directory entry.
type UserResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Roles       []domain.Role       `json:"roles"`
	Permissions []domain.Permission `json:"permissions"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u domain.User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []domain.Role{}
	}
	perms := u.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Roles:       roles,
		Permissions: perms,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewAuthResponse maps a session.
func NewAuthResponse(s *domain.Session) AuthResponse {
	return AuthResponse{
		User:             NewUserResponse(s.User),
		Token:            s.Token,
		ExpiresAt:        s.ExpiresAt,
		RefreshToken:     s.RefreshToken,
		RefreshExpiresAt: s.RefreshExpiresAt,
	}
}
