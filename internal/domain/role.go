package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

type RoleCategory string

const (
	CategoryCoachingStaff RoleCategory = "coaching_staff"
	CategoryPlayers       RoleCategory = "players"
	CategoryManagement    RoleCategory = "management"
	CategoryMedical       RoleCategory = "medical"
)

// AllCategories lists every role category in display order.
var AllCategories = []RoleCategory{
	CategoryCoachingStaff,
	CategoryPlayers,
	CategoryManagement,
	CategoryMedical,
}

// RolePresident is the role that owns a club.
const RolePresident = "President"

const RoleManager = "Manager"

// Permissions maps permission names to a granted flag. Stored as JSONB.
type Permissions map[string]bool

func (p Permissions) Has(name string) bool {
	return p[name]
}

// Granted returns the names of all granted permissions, sorted.
func (p Permissions) Granted() []string {
	out := make([]string, 0, len(p))
	for name, ok := range p {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Permissions) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = Permissions{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("permissions: unsupported scan type")
	}
	out := Permissions{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

// Role is a named role within a club, grouped by category.
type Role struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Category     RoleCategory `json:"category" db:"category"`
	Description  string       `json:"description" db:"description"`
	Permissions  Permissions  `json:"permissions" db:"permissions"`
	IsSystemRole bool         `json:"isSystemRole" db:"is_system_role"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}

// Membership links a user to a club under one role.
type Membership struct {
	ID           uuid.UUID    `db:"id"`
	UserID       uuid.UUID    `db:"user_id"`
	ClubID       uuid.UUID    `db:"club_id"`
	RoleID       uuid.UUID    `db:"role_id"`
	RoleName     string       `db:"role_name"`
	RoleCategory RoleCategory `db:"role_category"`
	Permissions  Permissions  `db:"permissions"`
	IsActive     bool         `db:"is_active"`
}

// MembershipContext is attached to a request that passed an authorization gate.
type MembershipContext struct {
	ID          uuid.UUID    `json:"id"`
	ClubID      uuid.UUID    `json:"clubId"`
	Role        string       `json:"role"`
	Category    RoleCategory `json:"category"`
	Permissions Permissions  `json:"permissions"`
	IsActive    bool         `json:"isActive"`
	IsOwner     bool         `json:"isOwner"`
}

func (m *Membership) Context() *MembershipContext {
	return &MembershipContext{
		ID:          m.ID,
		ClubID:      m.ClubID,
		Role:        m.RoleName,
		Category:    m.RoleCategory,
		Permissions: m.Permissions,
		IsActive:    m.IsActive,
		IsOwner:     m.IsActive && m.RoleName == RolePresident,
	}
}
