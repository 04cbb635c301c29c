package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	FirstName         string     `json:"firstName" db:"first_name"`
	LastName          string     `json:"lastName" db:"last_name"`
	BirthDate         time.Time  `json:"birthDate" db:"birth_date"`
	Country           string     `json:"country" db:"country"`
	Phone             *string    `json:"phone" db:"phone"`
	ProfilePictureURL *string    `json:"profilePictureUrl,omitempty" db:"profile_picture_url"`
	IsEmailVerified   bool       `json:"isEmailVerified" db:"is_email_verified"`
	IsActive          bool       `json:"-" db:"is_active"`
	LastLogin         *time.Time `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// UserProfile is the caller's own view of their account.
type UserProfile struct {
	*User
	ClubMemberships int `json:"clubMemberships"`
}

// ProfileUpdate carries the optional fields of a profile edit. Nil means
// leave unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	BirthDate *time.Time
	Country   *string
}

func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.BirthDate == nil && u.Country == nil
}

// NormalizeEmail is applied before every store and lookup so that email
// uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
