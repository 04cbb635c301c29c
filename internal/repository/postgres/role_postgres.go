package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type roleRepository struct {
	db sqlx.ExtContext
}

// NewRoleRepository creates a new PostgreSQL role repository
func NewRoleRepository(db sqlx.ExtContext) repository.RoleRepository {
	return &roleRepository{db: db}
}

// List returns the role catalogue grouped by category
func (r *roleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	query := `
		SELECT id, name, category, COALESCE(description, '') AS description,
			   permissions, is_system_role, created_at
		FROM club_roles
		ORDER BY category, name`

	var roles []*domain.Role
	if err := sqlx.SelectContext(ctx, r.db, &roles, query); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

type membershipRepository struct {
	db sqlx.ExtContext
}

// NewMembershipRepository creates a new PostgreSQL club membership repository
func NewMembershipRepository(db sqlx.ExtContext) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipQuery = `
	SELECT cm.id, cm.user_id, cm.club_id, cm.role_id,
		   cr.name AS role_name, cr.category AS role_category,
		   cr.permissions, cm.is_active
	FROM club_members cm
	JOIN club_roles cr ON cm.role_id = cr.id
	WHERE cm.user_id = $1 AND cm.club_id = $2`

// Find retrieves the user's membership in a club regardless of status
func (r *membershipRepository) Find(ctx context.Context, userID, clubID uuid.UUID) (*domain.Membership, error) {
	return r.get(ctx, membershipQuery, userID, clubID)
}

// FindActive retrieves the user's active membership in a club
func (r *membershipRepository) FindActive(ctx context.Context, userID, clubID uuid.UUID) (*domain.Membership, error) {
	return r.get(ctx, membershipQuery+` AND cm.is_active = true`, userID, clubID)
}

func (r *membershipRepository) get(ctx context.Context, query string, userID, clubID uuid.UUID) (*domain.Membership, error) {
	var m domain.Membership
	if err := sqlx.GetContext(ctx, r.db, &m, query+` LIMIT 1`, userID, clubID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// IsOwner checks for an active President membership in an existing club
func (r *membershipRepository) IsOwner(ctx context.Context, userID, clubID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM clubs c
			JOIN club_members cm ON c.id = cm.club_id
			JOIN club_roles cr ON cm.role_id = cr.id
			WHERE c.id = $1 AND cm.user_id = $2 AND cr.name = $3 AND cm.is_active = true
		)`

	var owner bool
	if err := sqlx.GetContext(ctx, r.db, &owner, query, clubID, userID, domain.RolePresident); err != nil {
		return false, fmt.Errorf("failed to check club ownership: %w", err)
	}

	return owner, nil
}

// CountActiveByUser counts the clubs the user is an active member of
func (r *membershipRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM club_members WHERE user_id = $1 AND is_active = true`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return n, nil
}
