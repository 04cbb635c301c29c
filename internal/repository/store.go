package repository

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is wrapped by repositories when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store groups the repositories that must share a transaction.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Memberships() MembershipRepository
	Roles() RoleRepository
	// WithTx runs fn against a transactional Store. fn's error rolls back.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type ConstraintKind int

const (
	UniqueViolation ConstraintKind = iota + 1
	ForeignKeyViolation
	NotNullViolation
	InvalidTextRepresentation
)

// ConstraintError is a database integrity failure, classified by kind so
// callers never parse driver messages.
type ConstraintError struct {
	Kind       ConstraintKind
	Table      string
	Constraint string
	Column     string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Err == nil {
		return "constraint violation " + e.Constraint
	}
	return "constraint violation " + e.Constraint + ": " + e.Err.Error()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Field names the offending column. Unique violations carry only the
// constraint name, so the column is recovered from the "<table>_<col>_key"
// naming convention.
func (e *ConstraintError) Field() string {
	if e.Column != "" {
		return e.Column
	}
	name := e.Constraint
	if e.Table != "" {
		name = strings.TrimPrefix(name, e.Table+"_")
	}
	for _, suffix := range []string{"_key", "_fkey", "_idx", "_unique"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == UniqueViolation
}
