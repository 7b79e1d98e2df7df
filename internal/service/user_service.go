package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/repository"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

const minPasswordLength = 6

// UserService manages the admin user directory.
type UserService struct {
	users       repository.UserRepository
	credentials repository.CredentialRepository
	bcryptCost  int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, credentials repository.CredentialRepository, bcryptCost int) *UserService {
	return &UserService{users: users, credentials: credentials, bcryptCost: bcryptCost}
}

// UserCreateInput describes a new directory entry.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Roles    []domain.Role
}

// UserUpdateInput carries optional changes to a user.
type UserUpdateInput struct {
	Name   *string
	Email  *string
	Roles  *[]domain.Role
	Active *bool
}

// ListUsers returns the directory.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// CreateUser stores the user and its password hash.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, passwordTooShort()
	}
	roles, err := validateRoles(input.Roles)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:        name,
		Email:       email,
		Roles:       roles,
		Permissions: auth.PermissionsFor(roles),
		Active:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.credentials.SetHash(ctx, user.ID, hash); err != nil {
		// A directory entry without a credential could never sign in.
		if _, delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies changes. Permissions follow the roles.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", map[string]any{"name": "required"})
		}
		user.Name = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("email is required", map[string]any{"email": "required"})
		}
		user.Email = email
	}
	if input.Roles != nil {
		roles, err := validateRoles(*input.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
		user.Permissions = auth.PermissionsFor(roles)
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and its credential. An admin cannot delete
// their own account.
func (s *UserService) DeleteUser(ctx context.Context, actingUserID, id string) error {
	if actingUserID == id {
		return apperrors.NewConflict("cannot delete the signed-in user", map[string]any{"user_id": id})
	}
	removed, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	return s.credentials.Delete(ctx, id)
}

// SetPassword replaces a user's password without checking the old one.
func (s *UserService) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < minPasswordLength {
		return passwordTooShort()
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.credentials.SetHash(ctx, id, hash)
}

func validateRoles(roles []domain.Role) ([]domain.Role, error) {
	if len(roles) == 0 {
		return []domain.Role{domain.RoleSalesperson}, nil
	}
	out := make([]domain.Role, 0, len(roles))
	seen := map[domain.Role]bool{}
	for _, role := range roles {
		if !auth.IsValidRole(role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
		}
		if !seen[role] {
			seen[role] = true
			out = append(out, role)
		}
	}
	return out, nil
}

// hashPassword maps an over-long password to a validation error instead of
// an internal one.
func hashPassword(password string, cost int) (string, error) {
	hash, err := auth.HashPassword(password, cost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("password must be at most 72 bytes", map[string]any{"password": "max 72 bytes"})
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func passwordTooShort() error {
	return apperrors.NewValidationError("password too short", map[string]any{"password": "min 6 characters"})
}
