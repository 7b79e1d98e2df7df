package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/events"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func actorOf(c *fiber.Ctx) events.Actor {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return events.Actor{}
	}
	return events.Actor{UserID: principal.User.ID, Name: principal.User.Name}
}

func data(v any) fiber.Map {
	return fiber.Map{"data": v}
}
