package handler

import (
	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SessionHandler struct {
	userService *service.UserService
}

func NewSessionHandler(userService *service.UserService) *SessionHandler {
	return &SessionHandler{userService: userService}
}

// List returns the caller's active sessions
// GET /api/v1/auth/sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	sessions, err := h.userService.ListSessions(c.UserContext(), identity.UserID, identity.SessionID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Revoke closes one of the caller's sessions
// DELETE /api/v1/auth/sessions/:id
func (h *SessionHandler) Revoke(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperror.Validation(fiber.Map{
			"errors": []validator.FieldError{{Field: "id", Message: "id must be a valid UUID"}},
		})
	}

	if err := h.userService.RevokeSession(c.UserContext(), identity.UserID, sessionID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Session closed successfully", nil)
}
