package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/andressep95/gameplan-api/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionHeader carries the server-side session id issued at login.
const SessionHeader = "X-Session-ID"

const identityKey = "identity"

// Identity is the authenticated caller attached to the request.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	IsActive  bool
	SessionID *uuid.UUID
}

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// UserLookup loads the account a token was issued for.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// SessionValidator reports whether a session is live for a user.
type SessionValidator interface {
	Validate(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
}

var (
	errTokenRequired      = apperror.Unauthorized("Access token is required", apperror.CodeTokenRequired)
	errInvalidToken       = apperror.Unauthorized("Invalid token", apperror.CodeInvalidToken)
	errTokenExpired       = apperror.Unauthorized("Token expired", apperror.CodeTokenExpired)
	errUserNotFound       = apperror.Unauthorized("User not found", apperror.CodeUserNotFound)
	errAccountDeactivated = apperror.Forbidden("Account is deactivated", apperror.CodeAccountDeactivated)
	errSessionInvalid     = apperror.Unauthorized("Session expired or invalid", apperror.CodeSessionInvalid)
	errAuthRequired       = apperror.Unauthorized("Authentication required", apperror.CodeAuthRequired)
)

// Authenticator resolves the caller of a request from its bearer token
// and optional session header.
type Authenticator struct {
	tokens   TokenVerifier
	users    UserLookup
	sessions SessionValidator
}

func NewAuthenticator(tokens TokenVerifier, users UserLookup, sessions SessionValidator) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, sessions: sessions}
}

// Authenticate rejects the request unless it carries a valid token for an
// active user and, when present, a live session for that user.
func (a *Authenticator) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := a.identify(c)
		if err != nil {
			return err
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// OptionalAuthenticate attaches the caller when the request authenticates
// and otherwise continues anonymously.
func (a *Authenticator) OptionalAuthenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, err := a.identify(c); err == nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	}
}

func (a *Authenticator) identify(c *fiber.Ctx) (*Identity, error) {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return nil, errTokenRequired
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errTokenExpired
		}
		return nil, errInvalidToken
	}

	ctx := c.UserContext()

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errAccountDeactivated
	}

	identity := &Identity{UserID: user.ID, Email: user.Email, IsActive: user.IsActive}

	if raw := strings.TrimSpace(c.Get(SessionHeader)); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			return nil, errSessionInvalid
		}
		ok, err := a.sessions.Validate(ctx, sessionID, user.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errSessionInvalid
		}
		identity.SessionID = &sessionID
	}

	return identity, nil
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetIdentity returns the caller attached by Authenticate.
func GetIdentity(c *fiber.Ctx) (*Identity, bool) {
	identity, ok := c.Locals(identityKey).(*Identity)
	return identity, ok && identity != nil
}

// RequireIdentity is GetIdentity for handlers mounted behind Authenticate.
func RequireIdentity(c *fiber.Ctx) (*Identity, error) {
	identity, ok := GetIdentity(c)
	if !ok {
		return nil, errAuthRequired
	}
	return identity, nil
}
