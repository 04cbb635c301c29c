package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side record that can revoke a device's access
// independently of token expiry.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	UserAgent string    `json:"userAgent,omitempty" db:"user_agent"`
	IPAddress string    `json:"ipAddress,omitempty" db:"ip_address"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SessionView is a session as listed back to its owner.
type SessionView struct {
	Session
	Current bool `json:"current"`
}
