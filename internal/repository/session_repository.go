package repository

import (
	"context"

	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// Validate reports whether an unexpired session with this id belongs to userID.
	Validate(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
	// Delete is idempotent; a missing session is not an error.
	Delete(ctx context.Context, sessionID, userID uuid.UUID) error
	// DeleteAllForUser removes every session of userID except the one given.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID, except *uuid.UUID) (int64, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
