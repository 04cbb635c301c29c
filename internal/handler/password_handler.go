package handler

import (
	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type PasswordHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewPasswordHandler(authService *service.AuthService, validator *validator.Validator) *PasswordHandler {
	return &PasswordHandler{
		authService: authService,
		validator:   validator,
	}
}

// ChangePassword replaces the caller's password and signs out every other
// session.
// POST /api/v1/auth/change-password
func (h *PasswordHandler) ChangePassword(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	var req service.ChangePasswordRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.UserContext(), identity.UserID, identity.SessionID, req); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Password changed successfully", nil)
}
