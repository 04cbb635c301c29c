package handler

import (
	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		validator:   validator,
	}
}

// Register creates an account and signs it in
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.authService.Register(c.UserContext(), req, clientInfo(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "User registered successfully", result)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.UserContext(), req, clientInfo(c))
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Login successful", result)
}

// Logout ends the session named by X-Session-ID, if any
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.UserContext(), identity.UserID, identity.SessionID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Logged out successfully", nil)
}

// Refresh issues a fresh token for the caller
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	token, err := h.authService.Refresh(c.UserContext(), identity.UserID, identity.Email)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Token refreshed successfully", token)
}

// Me returns the caller's profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.Me(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", fiber.Map{"user": profile})
}

// UpdateProfile applies a partial profile update
// PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	identity, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}

	var req service.UpdateProfileRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), identity.UserID, req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": user})
}
