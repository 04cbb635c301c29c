package repository

import (
	"context"

	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/google/uuid"
)

type RoleRepository interface {
	List(ctx context.Context) ([]*domain.Role, error)
}

type MembershipRepository interface {
	// Find returns the user's membership in the club, active or not.
	Find(ctx context.Context, userID, clubID uuid.UUID) (*domain.Membership, error)
	// FindActive ignores inactive memberships.
	FindActive(ctx context.Context, userID, clubID uuid.UUID) (*domain.Membership, error)
	// IsOwner reports whether the user holds an active President membership
	// of an existing club.
	IsOwner(ctx context.Context, userID, clubID uuid.UUID) (bool, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int, error)
}
