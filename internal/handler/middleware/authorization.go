package middleware

import (
	"context"
	"strings"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const membershipKey = "clubMembership"

// MembershipGate decides whether a user may act within a club.
type MembershipGate interface {
	RequireRole(ctx context.Context, userID, clubID uuid.UUID, requireActive bool, names ...string) (*domain.MembershipContext, error)
	RequireCategory(ctx context.Context, userID, clubID uuid.UUID, requireActive bool, categories ...domain.RoleCategory) (*domain.MembershipContext, error)
	RequirePermission(ctx context.Context, userID, clubID uuid.UUID, permission string) (*domain.MembershipContext, error)
	RequireOwnership(ctx context.Context, userID, clubID uuid.UUID) (*domain.MembershipContext, error)
}

var errClubIDRequired = apperror.BadRequest("Club ID is required", apperror.CodeClubIDRequired)

type gateOptions struct {
	requireActive bool
}

type GateOption func(*gateOptions)

// AllowInactive lets inactive memberships through a role or category gate.
func AllowInactive() GateOption {
	return func(o *gateOptions) {
		o.requireActive = false
	}
}

func newGateOptions(opts []GateOption) gateOptions {
	o := gateOptions{requireActive: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Authorizer builds club authorization gates. Every gate must run after
// Authenticate.
type Authorizer struct {
	gate MembershipGate
}

func NewAuthorizer(gate MembershipGate) *Authorizer {
	return &Authorizer{gate: gate}
}

// RequireRole admits members whose role name is one of names.
func (a *Authorizer) RequireRole(names []string, opts ...GateOption) fiber.Handler {
	o := newGateOptions(opts)
	return a.guard(func(ctx context.Context, userID, clubID uuid.UUID) (*domain.MembershipContext, error) {
		return a.gate.RequireRole(ctx, userID, clubID, o.requireActive, names...)
	})
}

// RequireRoleCategory admits members whose role belongs to one of categories.
func (a *Authorizer) RequireRoleCategory(categories []domain.RoleCategory, opts ...GateOption) fiber.Handler {
	o := newGateOptions(opts)
	return a.guard(func(ctx context.Context, userID, clubID uuid.UUID) (*domain.MembershipContext, error) {
		return a.gate.RequireCategory(ctx, userID, clubID, o.requireActive, categories...)
	})
}

// RequirePermission admits active members whose role grants permission.
func (a *Authorizer) RequirePermission(permission string) fiber.Handler {
	return a.guard(func(ctx context.Context, userID, clubID uuid.UUID) (*domain.MembershipContext, error) {
		return a.gate.RequirePermission(ctx, userID, clubID, permission)
	})
}

// RequireClubOwnership admits the club's active President.
func (a *Authorizer) RequireClubOwnership() fiber.Handler {
	return a.guard(a.gate.RequireOwnership)
}

func (a *Authorizer) guard(check func(ctx context.Context, userID, clubID uuid.UUID) (*domain.MembershipContext, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := RequireIdentity(c)
		if err != nil {
			return err
		}

		clubID, err := clubIDFrom(c)
		if err != nil {
			return err
		}

		membership, err := check(c.UserContext(), identity.UserID, clubID)
		if err != nil {
			return err
		}

		c.Locals(membershipKey, membership)
		return c.Next()
	}
}

// clubIDFrom reads the club id from the path, then the JSON body, then the
// query string.
func clubIDFrom(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Params("clubId")
	if raw == "" {
		raw = clubIDFromBody(c)
	}
	if raw == "" {
		raw = c.Query("clubId")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, errClubIDRequired
	}

	clubID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(map[string]interface{}{
			"errors": []validator.FieldError{{Field: "clubId", Message: "clubId must be a valid UUID"}},
		})
	}
	return clubID, nil
}

func clubIDFromBody(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 || !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return ""
	}

	var payload struct {
		ClubID string `json:"clubId"`
	}
	if err := c.App().Config().JSONDecoder(body, &payload); err != nil {
		return ""
	}
	return payload.ClubID
}

// GetMembership returns the membership attached by a club gate.
func GetMembership(c *fiber.Ctx) (*domain.MembershipContext, bool) {
	membership, ok := c.Locals(membershipKey).(*domain.MembershipContext)
	return membership, ok && membership != nil
}
