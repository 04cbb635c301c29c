package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/metrics"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs bearer tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string, rememberMe bool) (*domain.IssuedToken, error)
}

// PasswordHasher hashes new passwords and verifies stored ones.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsRehash(encodedHash string) bool
}

type AuthService struct {
	store   repository.Store
	tokens  TokenIssuer
	hasher  PasswordHasher
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// ClientInfo describes where a login or registration came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type RegisterRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=2,max=100"`
	LastName  string  `json:"lastName" validate:"required,min=2,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,password"`
	BirthDate string  `json:"birthDate" validate:"required,isodate"`
	Country   string  `json:"country" validate:"required,min=2,max=3"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
}

// Normalize trims names and canonicalizes the email before validation.
func (r *RegisterRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = domain.NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

func (r *LoginRequest) Normalize() {
	r.Email = domain.NormalizeEmail(r.Email)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	SessionID uuid.UUID    `json:"sessionId"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

var (
	errUserExists         = apperror.Conflict("User with this email already exists", apperror.CodeUserExists)
	errInvalidCredentials = apperror.Unauthorized("Invalid credentials", apperror.CodeInvalidCredentials)
	errAccountDeactivated = apperror.Forbidden("Account is deactivated", apperror.CodeAccountDeactivated)
	errUserNotFound       = apperror.NotFound("User not found", apperror.CodeUserNotFound)
	errWrongPassword      = apperror.Unauthorized("Current password is incorrect", apperror.CodeInvalidCurrentPass)
)

func NewAuthService(
	store repository.Store,
	tokens TokenIssuer,
	hasher PasswordHasher,
	m *metrics.Metrics,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		store:   store,
		tokens:  tokens,
		hasher:  hasher,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Register creates the account and its first session in one transaction.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client ClientInfo) (*AuthResult, error) {
	birthDate, err := validator.ParseISODate(req.BirthDate)
	if err != nil {
		return nil, apperror.Validation(map[string]interface{}{
			"errors": []validator.FieldError{{Field: "birthDate", Message: "birthDate must be a valid ISO 8601 date"}},
		})
	}

	var result *AuthResult
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().ExistsByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		if exists {
			return errUserExists
		}

		passwordHash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		now := s.now()
		user := &domain.User{
			ID:           uuid.New(),
			Email:        req.Email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			BirthDate:    birthDate,
			Country:      req.Country,
			Phone:        req.Phone,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := tx.Users().Create(ctx, user); err != nil {
			// a concurrent registration won the race for this email
			if repository.IsUniqueViolation(err) {
				return errUserExists
			}
			return err
		}

		result, err = s.startSession(ctx, tx, user, false, client)
		return err
	})

	s.metrics.Registration(err == nil)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", result.User.ID.String()))
	return result, nil
}

// Login verifies credentials and opens a new session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResult, error) {
	var result *AuthResult
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errInvalidCredentials
			}
			return err
		}

		if !user.IsActive {
			return errAccountDeactivated
		}

		valid, err := s.hasher.Verify(req.Password, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("failed to verify password: %w", err)
		}
		if !valid {
			return errInvalidCredentials
		}

		if s.hasher.NeedsRehash(user.PasswordHash) {
			if err := s.upgradeHash(ctx, tx, user, req.Password); err != nil {
				return err
			}
		}

		result, err = s.startSession(ctx, tx, user, req.RememberMe, client)
		if err != nil {
			return err
		}

		// the response carries the previous login time
		if err := tx.Users().UpdateLastLogin(ctx, user.ID); err != nil {
			return err
		}

		return nil
	})

	s.metrics.Login(err == nil)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// upgradeHash re-hashes a password stored in a legacy format.
func (s *AuthService) upgradeHash(ctx context.Context, tx repository.Store, user *domain.User, password string) error {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := tx.Users().UpdatePassword(ctx, user.ID, newHash); err != nil {
		return err
	}
	user.PasswordHash = newHash
	return nil
}

// startSession issues a token and records a session that expires with it.
func (s *AuthService) startSession(ctx context.Context, tx repository.Store, user *domain.User, rememberMe bool, client ClientInfo) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, rememberMe)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: s.now(),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := tx.Sessions().Create(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Token:     token.Token,
		SessionID: session.ID,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// Logout deletes the caller's current session when one was named. Without
// a session id there is nothing to revoke; the bearer token stays valid
// until it expires.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) error {
	if sessionID == nil {
		return nil
	}
	return s.store.Sessions().Delete(ctx, *sessionID, userID)
}

// Refresh issues a new default-expiry token for the same identity. The
// session store is not consulted or modified.
func (s *AuthService) Refresh(_ context.Context, userID uuid.UUID, email string) (*domain.IssuedToken, error) {
	token, err := s.tokens.Issue(userID, email, false)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// ChangePassword replaces the password hash and revokes every other session
// of the user. The session identified by currentSession survives.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentSession *uuid.UUID, req ChangePasswordRequest) error {
	var revoked int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errUserNotFound
			}
			return err
		}

		valid, err := s.hasher.Verify(req.CurrentPassword, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("failed to verify password: %w", err)
		}
		if !valid {
			return errWrongPassword
		}

		newHash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		if err := tx.Users().UpdatePassword(ctx, userID, newHash); err != nil {
			return err
		}

		revoked, err = tx.Sessions().DeleteAllForUser(ctx, userID, currentSession)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("password changed",
		zap.String("user_id", userID.String()),
		zap.Int64("sessions_revoked", revoked),
	)
	return nil
}
