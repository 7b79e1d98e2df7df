package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/leadflow/internal/api/dto"
	"github.com/spec-kit/leadflow/internal/api/validate"
	"github.com/spec-kit/leadflow/internal/service"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// AdminHandler exposes the user directory and settings documents.
type AdminHandler struct {
	users    *service.UserService
	settings *service.SettingsService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService, settings *service.SettingsService) *AdminHandler {
	return &AdminHandler{users: users, settings: settings}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}
	return c.JSON(data(out))
}

// CreateUser handles POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(dto.NewUserResponse(*user)))
}

// UpdateUser handles PATCH /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), c.Params("id"), service.UserUpdateInput{
		Name:   req.Name,
		Email:  req.Email,
		Roles:  req.Roles,
		Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewUserResponse(*user)))
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), caller.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetPassword handles PUT /admin/users/:id/password.
func (h *AdminHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.SetPasswordRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	if err := h.users.SetPassword(c.UserContext(), c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetSettings handles GET /admin/settings/:section.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	values, err := h.settings.Get(c.UserContext(), c.Params("section"))
	if err != nil {
		return err
	}
	return c.JSON(data(values))
}

// PutSettings handles PUT /admin/settings/:section. The body must be a
// JSON object; it replaces the stored section.
func (h *AdminHandler) PutSettings(c *fiber.Ctx) error {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &values); err != nil || values == nil {
		return apperrors.NewValidationError("settings must be a JSON object", nil)
	}
	stored, err := h.settings.Put(c.UserContext(), c.Params("section"), values)
	if err != nil {
		return err
	}
	return c.JSON(data(stored))
}
