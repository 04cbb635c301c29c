package postgres

import (
	"context"
	"fmt"

	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/jmoiron/sqlx"
)

type store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewStore creates a repository.Store backed by the given pool
func NewStore(db *sqlx.DB) repository.Store {
	return &store{db: db, ext: db}
}

func (s *store) Users() repository.UserRepository {
	return NewUserRepository(s.ext)
}

func (s *store) Sessions() repository.SessionRepository {
	return NewSessionRepository(s.ext)
}

func (s *store) Memberships() repository.MembershipRepository {
	return NewMembershipRepository(s.ext)
}

func (s *store) Roles() repository.RoleRepository {
	return NewRoleRepository(s.ext)
}

// WithTx begins a transaction, runs fn with a transactional store, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
// Calls made on an already transactional store join the outer transaction.
func (s *store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if _, inTx := s.ext.(*sqlx.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(&store{db: s.db, ext: tx})
}
