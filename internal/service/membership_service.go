package service

import (
	"context"
	"errors"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/google/uuid"
)

// MembershipService answers the club authorization questions: does the
// user hold one of these roles, one of these categories, this permission,
// or the club itself.
type MembershipService struct {
	store repository.Store
}

var (
	errNotClubMember      = apperror.Forbidden("Not a member of this club", apperror.CodeNotClubMember)
	errMembershipInactive = apperror.Forbidden("Club membership is inactive", apperror.CodeMembershipInactive)
	errInsufficientPerms  = apperror.Forbidden("Insufficient permissions", apperror.CodeInsufficientPerms)
	errOwnershipRequired  = apperror.Forbidden("Club ownership required", apperror.CodeClubOwnershipReq)
)

func NewMembershipService(store repository.Store) *MembershipService {
	return &MembershipService{store: store}
}

// RequireRole passes when the user's role name is exactly one of names.
func (s *MembershipService) RequireRole(ctx context.Context, userID, clubID uuid.UUID, requireActive bool, names ...string) (*domain.MembershipContext, error) {
	m, err := s.membership(ctx, userID, clubID, requireActive)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		if m.RoleName == name {
			return m.Context(), nil
		}
	}

	return nil, errInsufficientPerms.WithDetails(map[string]interface{}{
		"required": names,
		"current":  m.RoleName,
	})
}

// RequireCategory passes when the user's role belongs to one of categories.
func (s *MembershipService) RequireCategory(ctx context.Context, userID, clubID uuid.UUID, requireActive bool, categories ...domain.RoleCategory) (*domain.MembershipContext, error) {
	m, err := s.membership(ctx, userID, clubID, requireActive)
	if err != nil {
		return nil, err
	}

	for _, category := range categories {
		if m.RoleCategory == category {
			return m.Context(), nil
		}
	}

	return nil, errInsufficientPerms.WithDetails(map[string]interface{}{
		"required": categories,
		"current":  m.RoleName,
	})
}

// RequirePermission considers active memberships only.
func (s *MembershipService) RequirePermission(ctx context.Context, userID, clubID uuid.UUID, permission string) (*domain.MembershipContext, error) {
	m, err := s.store.Memberships().FindActive(ctx, userID, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotClubMember
		}
		return nil, err
	}

	if !m.Permissions.Has(permission) {
		return nil, errInsufficientPerms.WithDetails(map[string]interface{}{
			"required":  permission,
			"available": m.Permissions.Granted(),
		})
	}

	return m.Context(), nil
}

// RequireOwnership passes for an active President of an existing club.
func (s *MembershipService) RequireOwnership(ctx context.Context, userID, clubID uuid.UUID) (*domain.MembershipContext, error) {
	owner, err := s.store.Memberships().IsOwner(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, errOwnershipRequired
	}

	m, err := s.store.Memberships().FindActive(ctx, userID, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errOwnershipRequired
		}
		return nil, err
	}

	return m.Context(), nil
}

// Roles lists the role catalogue.
func (s *MembershipService) Roles(ctx context.Context) ([]*domain.Role, error) {
	return s.store.Roles().List(ctx)
}

func (s *MembershipService) membership(ctx context.Context, userID, clubID uuid.UUID, requireActive bool) (*domain.Membership, error) {
	m, err := s.store.Memberships().Find(ctx, userID, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotClubMember
		}
		return nil, err
	}

	if requireActive && !m.IsActive {
		return nil, errMembershipInactive
	}

	return m, nil
}
