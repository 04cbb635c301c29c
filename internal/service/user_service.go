package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/google/uuid"
)

type UserService struct {
	store repository.Store
}

// UpdateProfileRequest is a partial update; absent fields are left alone.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	BirthDate *string `json:"birthDate" validate:"omitempty,isodate"`
	Country   *string `json:"country" validate:"omitempty,min=2,max=3"`
}

func (r *UpdateProfileRequest) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.FirstName)
	trim(r.LastName)
}

var errNoUpdateFields = apperror.BadRequest("No fields to update", apperror.CodeNoUpdateFields)

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// Me returns the caller's profile with the number of active club memberships.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	count, err := s.store.Memberships().CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.UserProfile{User: user, ClubMemberships: count}, nil
}

// UpdateProfile applies the fields present in req.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*domain.User, error) {
	update := domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Country:   req.Country,
	}
	if req.BirthDate != nil {
		birthDate, err := validator.ParseISODate(*req.BirthDate)
		if err != nil {
			return nil, apperror.Validation(map[string]interface{}{
				"errors": []validator.FieldError{{Field: "birthDate", Message: "birthDate must be a valid ISO 8601 date"}},
			})
		}
		update.BirthDate = &birthDate
	}

	if update.Empty() {
		return nil, errNoUpdateFields
	}

	user, err := s.store.Users().UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// ListSessions returns the caller's unexpired sessions, flagging the one
// the request was made with.
func (s *UserService) ListSessions(ctx context.Context, userID uuid.UUID, current *uuid.UUID) ([]domain.SessionView, error) {
	sessions, err := s.store.Sessions().ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, domain.SessionView{
			Session: *session,
			Current: current != nil && session.ID == *current,
		})
	}
	return views, nil
}

// RevokeSession deletes one of the caller's sessions. Sessions of other
// users are never touched.
func (s *UserService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return s.store.Sessions().Delete(ctx, sessionID, userID)
}

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	sessions repository.SessionRepository
	interval time.Duration
	onSwept  func(n int64, err error)
}

func NewSessionSweeper(sessions repository.SessionRepository, interval time.Duration, onSwept func(n int64, err error)) *SessionSweeper {
	return &SessionSweeper{sessions: sessions, interval: interval, onSwept: onSwept}
}

// Run blocks until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) SweepOnce(ctx context.Context) {
	n, err := s.sessions.DeleteExpired(ctx)
	if s.onSwept != nil {
		s.onSwept(n, err)
	}
}
