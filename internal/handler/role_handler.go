package handler

import (
	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	membershipService *service.MembershipService
}

func NewRoleHandler(membershipService *service.MembershipService) *RoleHandler {
	return &RoleHandler{membershipService: membershipService}
}

// ListRoles returns the club role catalogue
// GET /api/v1/roles
func (h *RoleHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.membershipService.Roles(c.UserContext())
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", fiber.Map{"roles": roles})
}

// Membership returns the caller's membership resolved by a club gate
// GET /api/v1/clubs/:clubId/membership
func (h *RoleHandler) Membership(c *fiber.Ctx) error {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		return apperror.Forbidden("Not a member of this club", apperror.CodeNotClubMember)
	}

	return respond(c, fiber.StatusOK, "", fiber.Map{"membership": membership})
}

// Permission confirms the caller holds the permission checked by the gate
// GET /api/v1/clubs/:clubId/permissions/:permission
func (h *RoleHandler) Permission(c *fiber.Ctx) error {
	membership, ok := middleware.GetMembership(c)
	if !ok {
		return apperror.Forbidden("Not a member of this club", apperror.CodeNotClubMember)
	}

	return respond(c, fiber.StatusOK, "", fiber.Map{
		"permission": c.Params("permission"),
		"granted":    true,
		"membership": membership,
	})
}
